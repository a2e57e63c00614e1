package protocol

import (
	"errors"
	"fmt"

	"github.com/muurk/sbgecom/internal/streambuffer"
)

// Encode builds a complete frame for id and payload.
func Encode(id CommandID, payload []byte) ([]byte, error) {
	return AppendFrame(make([]byte, 0, FrameOverhead+len(payload)), id, payload)
}

// AppendFrame appends the frame for id and payload to dst and returns the
// extended slice. dst is returned unchanged on error.
func AppendFrame(dst []byte, id CommandID, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return dst, fmt.Errorf("%s: %d bytes exceeds %d: %w", id, len(payload), MaxPayloadSize, ErrPayloadTooLarge)
	}

	start := len(dst)
	size := FrameOverhead + len(payload)
	out := append(dst, make([]byte, size)...)

	w := streambuffer.NewWriter(out[start:])
	err := errors.Join(
		w.WriteUint8(SyncByte1),
		w.WriteUint8(SyncByte2),
		w.WriteUint8(uint8(id.Class())),
		w.WriteUint8(id.ID()),
		w.WriteUint16(uint16(len(payload))),
		w.WriteBuffer(payload),
	)
	if err == nil {
		crc := Checksum(out[start+2 : start+HeaderSize+len(payload)])
		err = errors.Join(w.WriteUint16(crc), w.WriteUint8(EndMarker))
	}
	if err != nil {
		return dst, fmt.Errorf("encode %s: %w", id, err)
	}

	return out, nil
}
