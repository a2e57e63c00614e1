package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"

	"github.com/muurk/sbgecom/internal/logging"
	"github.com/muurk/sbgecom/internal/streambuffer"
	"go.uber.org/zap"
)

var syncPair = []byte{SyncByte1, SyncByte2}

// Stats counts decoder events. They are diagnostic only.
type Stats struct {
	Frames          uint64 // valid frames returned
	ChecksumErrors  uint64 // candidates dropped for a CRC mismatch
	MalformedFrames uint64 // candidates dropped for a bad length or end marker
	DiscardedBytes  uint64 // bytes skipped while searching for a sync pair
	TruncatedFrames uint64 // partial frames thrown away by Reset
}

// Decoder extracts frames from a byte stream fed in arbitrary chunks.
//
// The decoder only retains bytes that may still belong to a frame: an
// incomplete candidate starting at a sync pair, or a trailing 0xFF that may be
// the first half of one. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf   []byte
	stats Stats
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, 2*MaxFrameSize)}
}

// Feed appends stream bytes. p is copied and may be reused by the caller.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Stats returns a snapshot of the decoder counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Reset discards any partial frame. Used when the transport is reopened.
func (d *Decoder) Reset() {
	if len(d.buf) > 0 {
		d.stats.TruncatedFrames++
	}
	d.buf = d.buf[:0]
}

// Next returns the next complete, valid frame. It returns false when more
// input is needed.
func (d *Decoder) Next() (Frame, bool) {
	for {
		i := bytes.Index(d.buf, syncPair)
		if i < 0 {
			keep := 0
			if n := len(d.buf); n > 0 && d.buf[n-1] == SyncByte1 {
				keep = 1
			}
			d.discard(len(d.buf) - keep)
			return Frame{}, false
		}
		d.discard(i)

		if len(d.buf) < HeaderSize {
			return Frame{}, false
		}

		length := int(binary.LittleEndian.Uint16(d.buf[4:HeaderSize]))
		if length > MaxPayloadSize {
			d.stats.MalformedFrames++
			d.drop(fmt.Errorf("length %d exceeds %d: %w", length, MaxPayloadSize, ErrMalformedFrame))
			continue
		}

		total := FrameOverhead + length
		if len(d.buf) < total {
			// A corrupted length makes the candidate wait for bytes that may
			// never come. Give it up once a complete frame follows it.
			if !d.validFrameFrom(1) {
				return Frame{}, false
			}
			d.stats.MalformedFrames++
			d.drop(fmt.Errorf("length %d overruns a valid frame: %w", length, ErrMalformedFrame))
			continue
		}

		f, err := parseFrame(d.buf[:total])
		if err != nil {
			if errors.Is(err, ErrChecksumMismatch) {
				d.stats.ChecksumErrors++
			} else {
				d.stats.MalformedFrames++
			}
			d.drop(err)
			continue
		}

		d.consume(total)
		d.stats.Frames++
		return f, true
	}
}

// Frames returns a sequence over the frames currently decodable. Stopping the
// iteration early leaves the remaining frames in the decoder, and the
// sequence can be ranged over again after more input is fed.
func (d *Decoder) Frames() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for {
			f, ok := d.Next()
			if !ok || !yield(f) {
				return
			}
		}
	}
}

// validFrameFrom reports whether a complete frame with a valid checksum starts
// at or after offset from.
func (d *Decoder) validFrameFrom(from int) bool {
	for from < len(d.buf) {
		i := bytes.Index(d.buf[from:], syncPair)
		if i < 0 {
			return false
		}
		rest := d.buf[from+i:]
		if len(rest) >= HeaderSize {
			length := int(binary.LittleEndian.Uint16(rest[4:HeaderSize]))
			if total := FrameOverhead + length; length <= MaxPayloadSize && len(rest) >= total {
				if _, err := parseFrame(rest[:total]); err == nil {
					return true
				}
			}
		}
		from += i + 1
	}
	return false
}

// drop abandons the candidate at the head of the buffer by skipping its first
// byte, so that a genuine frame starting inside it can still be found.
func (d *Decoder) drop(reason error) {
	logging.Debug("Dropping frame candidate",
		zap.Error(reason),
		zap.Int("buffered", len(d.buf)),
	)
	d.consume(1)
}

// discard skips bytes that cannot start a frame.
func (d *Decoder) discard(n int) {
	if n <= 0 {
		return
	}
	d.stats.DiscardedBytes += uint64(n)
	d.consume(n)
}

func (d *Decoder) consume(n int) {
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}

// Verify checks a single complete raw frame.
func Verify(raw []byte) (Frame, error) {
	if len(raw) < FrameOverhead || raw[0] != SyncByte1 || raw[1] != SyncByte2 {
		return Frame{}, fmt.Errorf("missing sync pair or short frame (%d bytes): %w", len(raw), ErrMalformedFrame)
	}
	length := int(binary.LittleEndian.Uint16(raw[4:HeaderSize]))
	if length > MaxPayloadSize || FrameOverhead+length != len(raw) {
		return Frame{}, fmt.Errorf("length field %d does not match %d byte frame: %w", length, len(raw), ErrMalformedFrame)
	}
	return parseFrame(raw)
}

// parseFrame validates a candidate whose sync pair and length are already
// known to be consistent with len(raw).
func parseFrame(raw []byte) (Frame, error) {
	r := streambuffer.NewReader(raw)
	_ = r.Skip(2)
	class, _ := r.ReadUint8()
	id, _ := r.ReadUint8()
	length, _ := r.ReadUint16()
	payload := make([]byte, length)
	_ = r.ReadBuffer(payload)
	crc, _ := r.ReadUint16()
	end, err := r.ReadUint8()
	if err != nil {
		return Frame{}, fmt.Errorf("truncated frame: %w", ErrMalformedFrame)
	}

	frameID := NewCommandID(Class(class), id)
	if want := Checksum(raw[2 : HeaderSize+int(length)]); crc != want {
		return Frame{}, fmt.Errorf("%s: crc 0x%04x, computed 0x%04x: %w", frameID, crc, want, ErrChecksumMismatch)
	}
	if end != EndMarker {
		return Frame{}, fmt.Errorf("%s: end marker 0x%02x: %w", frameID, end, ErrMalformedFrame)
	}

	return Frame{ID: frameID, Payload: payload}, nil
}
