package ecom

import "fmt"

// FixedString is a 32-byte NUL-padded text field. All bytes are kept so that
// an answer re-encodes exactly as received.
type FixedString [32]byte

// NewFixedString stores s, truncated to 32 bytes.
func NewFixedString(s string) FixedString {
	var f FixedString
	copy(f[:], s)
	return f
}

// String returns the content up to the first NUL.
func (f FixedString) String() string {
	for i, b := range f {
		if b == 0 {
			return string(f[:i])
		}
	}
	return string(f[:])
}

// MarshalText returns the NUL-trimmed text.
func (f FixedString) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText stores text, which must fit the field.
func (f *FixedString) UnmarshalText(text []byte) error {
	if len(text) > len(f) {
		return fmt.Errorf("text of %d bytes exceeds %d byte field", len(text), len(f))
	}
	*f = NewFixedString(string(text))
	return nil
}
