package protocol

import (
	"errors"
	"fmt"
)

// Frame markers and sizes
const (
	SyncByte1 = 0xFF
	SyncByte2 = 0x5A
	EndMarker = 0x33

	// HeaderSize covers the sync pair, class, id and payload length.
	HeaderSize = 6
	// FrameOverhead is the header plus the CRC and end marker.
	FrameOverhead = HeaderSize + 3
	// MaxFrameSize is the largest frame the device accepts or emits.
	MaxFrameSize = 4095
	// MaxPayloadSize is the largest payload that fits in MaxFrameSize.
	MaxPayloadSize = MaxFrameSize - FrameOverhead
)

var (
	// ErrPayloadTooLarge is returned when a payload exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrChecksumMismatch is reported when a frame CRC does not match its content.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrMalformedFrame is reported for a bad sync pair, length or end marker.
	ErrMalformedFrame = errors.New("malformed frame")
)

// Frame is a decoded message. The payload is owned by the Frame.
type Frame struct {
	ID      CommandID
	Payload []byte
}

// Size returns the number of bytes the frame occupies on the wire.
func (f Frame) Size() int {
	return FrameOverhead + len(f.Payload)
}

// String returns a short description of the frame.
func (f Frame) String() string {
	return fmt.Sprintf("%s (%d bytes)", f.ID, len(f.Payload))
}
