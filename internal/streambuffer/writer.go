package streambuffer

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer writes little-endian typed fields into a fixed-capacity byte slice.
type Writer struct {
	buf    []byte
	pos    int
	length int
}

// NewWriter creates a Writer over buf. The capacity is len(buf) and the
// logical length starts at 0. Bytes are written in place into buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// reserve returns the n-byte window at the cursor and advances it, or fails
// without touching the Writer.
func (w *Writer) reserve(n int) ([]byte, error) {
	if n < 0 || n > len(w.buf)-w.pos {
		return nil, fmt.Errorf("write %d bytes at offset %d of %d: %w", n, w.pos, len(w.buf), ErrBufferFull)
	}
	b := w.buf[w.pos : w.pos+n]
	w.pos += n
	if w.pos > w.length {
		w.length = w.pos
	}
	return b, nil
}

// Len returns the number of bytes written so far (the logical length).
func (w *Writer) Len() int { return w.length }

// Cap returns the fixed capacity.
func (w *Writer) Cap() int { return len(w.buf) }

// Tell returns the cursor position.
func (w *Writer) Tell() int { return w.pos }

// Available returns the number of bytes that can still be written at the cursor.
func (w *Writer) Available() int { return len(w.buf) - w.pos }

// Bytes returns the written portion of the buffer. It aliases the caller's buffer.
func (w *Writer) Bytes() []byte { return w.buf[:w.length] }

// Reset rewinds the cursor to 0. The logical length is kept so that a
// placeholder at the start can be patched.
func (w *Writer) Reset() { w.pos = 0 }

// Seek moves the cursor to pos, which must lie in [0, Len()].
func (w *Writer) Seek(pos int) error {
	if pos < 0 || pos > w.length {
		return fmt.Errorf("seek to %d of %d: %w", pos, w.length, ErrOutOfBounds)
	}
	w.pos = pos
	return nil
}

// WriteUint8 writes an unsigned byte.
func (w *Writer) WriteUint8(v uint8) error {
	b, err := w.reserve(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// WriteInt8 writes a signed byte.
func (w *Writer) WriteInt8(v int8) error { return w.WriteUint8(uint8(v)) }

// WriteBool writes a bool as one byte, 1 for true.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

// WriteUint16 writes a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) error {
	b, err := w.reserve(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

// WriteInt16 writes a little-endian int16.
func (w *Writer) WriteInt16(v int16) error { return w.WriteUint16(uint16(v)) }

// WriteUint32 writes a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) error {
	b, err := w.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// WriteInt32 writes a little-endian int32.
func (w *Writer) WriteInt32(v int32) error { return w.WriteUint32(uint32(v)) }

// WriteUint64 writes a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) error {
	b, err := w.reserve(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

// WriteInt64 writes a little-endian int64.
func (w *Writer) WriteInt64(v int64) error { return w.WriteUint64(uint64(v)) }

// WriteFloat32 writes an IEEE 754 single in little-endian order.
func (w *Writer) WriteFloat32(v float32) error { return w.WriteUint32(math.Float32bits(v)) }

// WriteFloat64 writes an IEEE 754 double in little-endian order.
func (w *Writer) WriteFloat64(v float64) error { return w.WriteUint64(math.Float64bits(v)) }

// WriteBuffer copies src at the cursor. Nothing is written if src does not fit.
func (w *Writer) WriteBuffer(src []byte) error {
	b, err := w.reserve(len(src))
	if err != nil {
		return err
	}
	copy(b, src)
	return nil
}

// WriteSizedBuffer writes a uint16 length prefix followed by src.
func (w *Writer) WriteSizedBuffer(src []byte) error {
	if len(src) > math.MaxUint16 {
		return fmt.Errorf("sized buffer of %d bytes: %w", len(src), ErrBufferFull)
	}
	if 2+len(src) > w.Available() {
		return fmt.Errorf("write %d bytes at offset %d of %d: %w", 2+len(src), w.pos, len(w.buf), ErrBufferFull)
	}
	if err := w.WriteUint16(uint16(len(src))); err != nil {
		return err
	}
	return w.WriteBuffer(src)
}

// WriteFixedString writes s into an n-byte field, padding with NUL bytes.
func (w *Writer) WriteFixedString(s string, n int) error {
	if len(s) > n {
		return fmt.Errorf("%q into %d bytes: %w", s, n, ErrStringTooLong)
	}
	b, err := w.reserve(n)
	if err != nil {
		return err
	}
	copy(b, s)
	clear(b[len(s):])
	return nil
}
