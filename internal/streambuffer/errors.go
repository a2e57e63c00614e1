package streambuffer

import "errors"

var (
	// ErrOutOfBounds is returned when a read or seek would move the cursor past the logical length.
	ErrOutOfBounds = errors.New("streambuffer: out of bounds")

	// ErrBufferFull is returned when a write would exceed the buffer capacity.
	ErrBufferFull = errors.New("streambuffer: buffer full")

	// ErrStringTooLong is returned when a string does not fit in its fixed-size field.
	ErrStringTooLong = errors.New("streambuffer: string longer than field")
)
