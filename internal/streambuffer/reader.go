package streambuffer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Reader reads little-endian typed fields from a byte slice.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data. The cursor starts at 0 and the logical
// length is len(data). The Reader does not copy data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// take returns the next n bytes and advances the cursor, or fails without
// moving it.
func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.data)-r.pos {
		return nil, fmt.Errorf("read %d bytes at offset %d of %d: %w", n, r.pos, len(r.data), ErrOutOfBounds)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Len returns the logical length of the buffer.
func (r *Reader) Len() int { return len(r.data) }

// Tell returns the cursor position.
func (r *Reader) Tell() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Reset rewinds the cursor to the start of the buffer.
func (r *Reader) Reset() { r.pos = 0 }

// Seek moves the cursor to pos, which must lie in [0, Len()].
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("seek to %d of %d: %w", pos, len(r.data), ErrOutOfBounds)
	}
	r.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// ReadUint8 reads an unsigned byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads a signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads an IEEE 754 single in little-endian order.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE 754 double in little-endian order.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBuffer fills dst with the next len(dst) bytes.
func (r *Reader) ReadBuffer(dst []byte) error {
	b, err := r.take(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// ReadSizedBuffer reads a uint16 length prefix followed by that many bytes.
// The returned slice aliases the Reader's data.
func (r *Reader) ReadSizedBuffer() ([]byte, error) {
	start := r.pos
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		r.pos = start
		return nil, err
	}
	return b, nil
}

// ReadFixedString reads an n-byte field and returns its content up to the
// first NUL byte.
func (r *Reader) ReadFixedString(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}
