package ecan

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxDataLength is the payload limit of a classic CAN frame.
const MaxDataLength = 8

var (
	// ErrInvalidLine is returned for text that is not a candump frame.
	ErrInvalidLine = errors.New("invalid candump line")
	// ErrShortFrame is returned when a frame carries fewer bytes than its layout.
	ErrShortFrame = errors.New("frame too short")
)

// Frame is one classic CAN frame.
type Frame struct {
	ID   MessageID
	DLC  uint8
	Data [MaxDataLength]byte
}

// Payload returns the first DLC bytes of Data.
func (f Frame) Payload() []byte { return f.Data[:f.DLC] }

func (f Frame) String() string {
	return fmt.Sprintf("%03X#%X", uint16(f.ID), f.Payload())
}

// ParseCandump parses a frame in the compact candump format, "123#00112233".
// Leading fields such as "(1700000000.123456) can0" are skipped. Extended
// identifiers and remote frames are rejected.
func ParseCandump(line string) (Frame, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Frame{}, fmt.Errorf("empty line: %w", ErrInvalidLine)
	}
	token := fields[len(fields)-1]

	idText, dataText, ok := strings.Cut(token, "#")
	if !ok {
		return Frame{}, fmt.Errorf("%q has no '#': %w", token, ErrInvalidLine)
	}
	if len(idText) != 3 {
		return Frame{}, fmt.Errorf("%q is not an 11-bit identifier: %w", idText, ErrInvalidLine)
	}
	id, err := strconv.ParseUint(idText, 16, 16)
	if err != nil || id > 0x7FF {
		return Frame{}, fmt.Errorf("identifier %q: %w", idText, ErrInvalidLine)
	}
	if strings.HasPrefix(dataText, "R") {
		return Frame{}, fmt.Errorf("remote frame %q: %w", token, ErrInvalidLine)
	}

	data, err := hex.DecodeString(strings.ReplaceAll(dataText, ".", ""))
	if err != nil {
		return Frame{}, fmt.Errorf("data %q: %w", dataText, ErrInvalidLine)
	}
	if len(data) > MaxDataLength {
		return Frame{}, fmt.Errorf("%d data bytes: %w", len(data), ErrInvalidLine)
	}

	f := Frame{ID: MessageID(id), DLC: uint8(len(data))}
	copy(f.Data[:], data)
	return f, nil
}
