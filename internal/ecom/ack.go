package ecom

import (
	"errors"

	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/streambuffer"
)

// AckID is the id of acknowledge frames.
var AckID = protocol.NewCommandID(protocol.ClassCmd0, protocol.CmdAck)

// ackSize is the ACK payload length: id, class, error code.
const ackSize = 4

// Ack is the device answer to a command that returns no data.
type Ack struct {
	ID   protocol.CommandID // Acknowledged command
	Code DeviceErrorCode
}

// DecodeAck reads an ACK payload.
func DecodeAck(payload []byte) (Ack, error) {
	r := streambuffer.NewReader(payload)
	id, err1 := r.ReadUint8()
	class, err2 := r.ReadUint8()
	code, err3 := r.ReadUint16()
	if err := errors.Join(err1, err2, err3); err != nil {
		return Ack{}, wrapError("CMD_0/ACK", err)
	}
	return Ack{
		ID:   protocol.NewCommandID(protocol.Class(class), id),
		Code: DeviceErrorCode(code),
	}, nil
}

// EncodeAck builds an ACK payload. Device emulators and tests use it.
func EncodeAck(a Ack) []byte {
	buf := make([]byte, ackSize)
	w := streambuffer.NewWriter(buf)
	_ = w.WriteUint8(a.ID.ID())
	_ = w.WriteUint8(uint8(a.ID.Class()))
	_ = w.WriteUint16(uint16(a.Code))
	return w.Bytes()
}

// Err returns nil for CodeNoError and a device error otherwise.
func (a Ack) Err() error {
	if a.Code == CodeNoError {
		return nil
	}
	return newDeviceError(a.ID.String(), a.Code)
}

// ackFor reports whether f is an ACK naming id.
func ackFor(f protocol.Frame, id protocol.CommandID) (Ack, bool) {
	if f.ID != AckID {
		return Ack{}, false
	}
	ack, err := DecodeAck(f.Payload)
	if err != nil || ack.ID != id {
		return Ack{}, false
	}
	return ack, true
}
