package ecom

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/streambuffer"
	"github.com/muurk/sbgecom/internal/transport"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNullArgument indicates a required handle or result argument was nil
	ErrTypeNullArgument ErrorType = iota
	// ErrTypeOutOfBounds indicates a payload was shorter than its layout
	ErrTypeOutOfBounds
	// ErrTypeBufferFull indicates a payload did not fit its output buffer
	ErrTypeBufferFull
	// ErrTypePayloadTooLarge indicates a payload above the frame limit
	ErrTypePayloadTooLarge
	// ErrTypeChecksumMismatch indicates a frame failed its CRC
	ErrTypeChecksumMismatch
	// ErrTypeMalformedFrame indicates a frame with a bad length or end marker
	ErrTypeMalformedFrame
	// ErrTypeTimeout indicates no matching reply within the attempt budget
	ErrTypeTimeout
	// ErrTypeTransport indicates the underlying link failed
	ErrTypeTransport
	// ErrTypeDevice indicates the device answered with an error code
	ErrTypeDevice
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNullArgument:
		return "Null Argument"
	case ErrTypeOutOfBounds:
		return "Out Of Bounds"
	case ErrTypeBufferFull:
		return "Buffer Full"
	case ErrTypePayloadTooLarge:
		return "Payload Too Large"
	case ErrTypeChecksumMismatch:
		return "Checksum Mismatch"
	case ErrTypeMalformedFrame:
		return "Malformed Frame"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeDevice:
		return "Device Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Sentinels matched by *Error through errors.Is.
var (
	ErrNullArgument = errors.New("null argument")
	ErrTimeout      = errors.New("timeout")
	ErrTransport    = errors.New("transport error")
	ErrDevice       = errors.New("device error")
)

// DeviceErrorCode is the error code carried by an ACK frame.
type DeviceErrorCode uint16

// Device error codes
const (
	CodeNoError              DeviceErrorCode = 0
	CodeError                DeviceErrorCode = 1
	CodeNullPointer          DeviceErrorCode = 2
	CodeInvalidCRC           DeviceErrorCode = 3
	CodeInvalidFrame         DeviceErrorCode = 4
	CodeTimeOut              DeviceErrorCode = 5
	CodeWriteError           DeviceErrorCode = 6
	CodeReadError            DeviceErrorCode = 7
	CodeBufferOverflow       DeviceErrorCode = 8
	CodeInvalidParameter     DeviceErrorCode = 9
	CodeNotReady             DeviceErrorCode = 10
	CodeMallocFailed         DeviceErrorCode = 11
	CodeCalibMagNotEnough    DeviceErrorCode = 12
	CodeCalibMagInvalidTake  DeviceErrorCode = 13
	CodeCalibMagSaturation   DeviceErrorCode = 14
	CodeCalibMagPointsNotIn  DeviceErrorCode = 15
	CodeDeviceNotFound       DeviceErrorCode = 16
	CodeOperationCancelled   DeviceErrorCode = 17
	CodeNotContinuousFrame   DeviceErrorCode = 18
	CodeIncompatibleHardware DeviceErrorCode = 19
	CodeInvalidVersion       DeviceErrorCode = 20
)

var deviceErrorNames = [...]string{
	"NO_ERROR", "ERROR", "NULL_POINTER", "INVALID_CRC", "INVALID_FRAME",
	"TIME_OUT", "WRITE_ERROR", "READ_ERROR", "BUFFER_OVERFLOW", "INVALID_PARAMETER",
	"NOT_READY", "MALLOC_FAILED", "CALIB_MAG_NOT_ENOUGH_POINTS", "CALIB_MAG_INVALID_TAKE",
	"CALIB_MAG_SATURATION", "CALIB_MAG_POINTS_NOT_IN_A_PLANE", "DEVICE_NOT_FOUND",
	"OPERATION_CANCELLED", "NOT_CONTINUOUS_FRAME", "INCOMPATIBLE_HARDWARE", "INVALID_VERSION",
}

// String returns the firmware name of the code
func (c DeviceErrorCode) String() string {
	if int(c) < len(deviceErrorNames) {
		return deviceErrorNames[c]
	}
	return fmt.Sprintf("DeviceErrorCode(%d)", uint16(c))
}

// Error is returned by every Handle operation and command codec.
type Error struct {
	Type      ErrorType
	Op        string          // Operation or message, e.g. "CMD_0/FEATURES"
	Message   string          // Human-readable error message
	Err       error           // Underlying error (if any)
	Code      DeviceErrorCode // Device error code for ErrTypeDevice
	Attempts  int             // Sends made before a timeout
	Retryable bool            // Whether a new attempt may succeed
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by error type.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNullArgument:
		return e.Type == ErrTypeNullArgument
	case ErrTimeout:
		return e.Type == ErrTypeTimeout
	case ErrTransport:
		return e.Type == ErrTypeTransport
	case ErrDevice:
		return e.Type == ErrTypeDevice
	}
	return false
}

func newNullArgument(op, what string) *Error {
	return &Error{Type: ErrTypeNullArgument, Op: op, Message: what + " is nil"}
}

func newTimeout(op string, attempts int, timeout time.Duration) *Error {
	return &Error{
		Type:      ErrTypeTimeout,
		Op:        op,
		Message:   fmt.Sprintf("no reply after %d attempt(s) of %s", attempts, timeout),
		Attempts:  attempts,
		Retryable: true,
	}
}

func newTransportError(op string, err error) *Error {
	return &Error{Type: ErrTypeTransport, Op: op, Message: "transport failed", Err: err}
}

func newDeviceError(op string, code DeviceErrorCode) *Error {
	return &Error{
		Type:      ErrTypeDevice,
		Op:        op,
		Message:   "device returned " + code.String(),
		Code:      code,
		Retryable: code == CodeNotReady,
	}
}

// wrapError classifies a codec or stream buffer error.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Type: ClassifyError(err), Op: op, Message: "invalid payload", Err: err}
}

// ClassifyError returns the category of err, looking through wrapped errors.
func ClassifyError(err error) ErrorType {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e.Type
	case errors.Is(err, streambuffer.ErrOutOfBounds):
		return ErrTypeOutOfBounds
	case errors.Is(err, streambuffer.ErrBufferFull), errors.Is(err, streambuffer.ErrStringTooLong):
		return ErrTypeBufferFull
	case errors.Is(err, protocol.ErrPayloadTooLarge):
		return ErrTypePayloadTooLarge
	case errors.Is(err, protocol.ErrChecksumMismatch):
		return ErrTypeChecksumMismatch
	case errors.Is(err, protocol.ErrMalformedFrame):
		return ErrTypeMalformedFrame
	case errors.Is(err, transport.ErrClosed):
		return ErrTypeTransport
	default:
		return ErrTypeUnknown
	}
}

// IsTimeout checks if an error is a reply timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsTransportError checks if an error comes from the transport
func IsTransportError(err error) bool {
	return ClassifyError(err) == ErrTypeTransport
}

// IsDeviceError checks if the device answered with an error code
func IsDeviceError(err error) bool {
	return errors.Is(err, ErrDevice)
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The device did not answer in time.",
			"Troubleshooting:",
			"  • Check that the device is powered and the cable is connected",
			"  • Verify the baud rate matches the device port configuration",
			"  • For Ethernet units, check the UDP input and output ports",
			"  • Try increasing --timeout or --attempts",
		}, "\n")

	case ErrTypeTransport:
		return strings.Join([]string{
			"The link to the device failed.",
			"Troubleshooting:",
			"  • Check that the serial port exists and is not used by another program",
			"  • Check your permissions on the port (dialout group on Linux)",
			"  • For UDP, verify the local port is free and the address is reachable",
		}, "\n")

	case ErrTypeDevice:
		if e.Code == CodeNotReady {
			return "The device is busy. Wait a moment and try again."
		}
		if e.Code == CodeInvalidParameter {
			return "The device rejected a parameter. Check the values against the device manual."
		}
		return fmt.Sprintf("The device reported %s.", e.Code)

	case ErrTypeOutOfBounds, ErrTypeMalformedFrame, ErrTypeChecksumMismatch:
		return strings.Join([]string{
			"The device answer could not be decoded.",
			"This may indicate a firmware version this tool does not know.",
			"  • Run with --log-level debug to capture the raw frames",
		}, "\n")

	case ErrTypeNullArgument, ErrTypePayloadTooLarge, ErrTypeBufferFull:
		return "The request was invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}
