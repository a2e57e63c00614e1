// Package streambuffer implements cursor-based, little-endian binary readers and
// writers over caller-owned byte slices.
//
// Every payload exchanged with the device is serialized through this package.
// A Reader is bound to a received payload and consumes typed fields in order; a
// Writer is bound to a fixed-capacity buffer and appends typed fields until the
// buffer is full.
//
// # Bounds
//
// Buffers never grow. A read that would cross the logical length fails with
// ErrOutOfBounds and a write that would cross the capacity fails with
// ErrBufferFull. On failure the cursor, the length and the underlying bytes are
// left exactly as they were, so a caller can inspect the error and continue
// with the same buffer.
//
// # Usage Example
//
//	buf := make([]byte, 64)
//	w := streambuffer.NewWriter(buf)
//	_ = w.WriteUint32(0x00000001)
//	_ = w.WriteUint8(3)
//
//	r := streambuffer.NewReader(w.Bytes())
//	mask, _ := r.ReadUint32()
//	gnssType, _ := r.ReadUint8()
//
// # Two-pass Encoding
//
// A Writer can seek back to an earlier position to patch a placeholder, for
// example a length field that is only known once the body has been written.
// Seeking never changes the logical length; only writes past the current
// length extend it.
//
// # Thread Safety
//
// Readers and Writers are meant to be created immediately before a
// serialize/deserialize operation and discarded right after. They are not safe
// for concurrent use.
package streambuffer
