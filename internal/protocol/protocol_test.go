package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func mustEncode(t *testing.T, id CommandID, payload []byte) []byte {
	t.Helper()
	raw, err := Encode(id, payload)
	if err != nil {
		t.Fatalf("Encode(%s) error = %v", id, err)
	}
	return raw
}

func TestChecksumKnownVector(t *testing.T) {
	// Reflected CCITT with zero init (CRC-16/KERMIT) check value.
	if got := Checksum([]byte("123456789")); got != 0x2189 {
		t.Errorf("Checksum(123456789) = 0x%04x, want 0x2189", got)
	}
	if got := Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = 0x%04x, want 0", got)
	}
}

func TestEncodeLayout(t *testing.T) {
	id := NewCommandID(ClassCmd0, CmdFeatures)
	raw := mustEncode(t, id, []byte{0xAA, 0xBB})

	wantHeader := []byte{0xFF, 0x5A, 0x10, 0x21, 0x02, 0x00, 0xAA, 0xBB}
	if !bytes.Equal(raw[:8], wantHeader) {
		t.Fatalf("header = % x, want % x", raw[:8], wantHeader)
	}
	crc := Checksum(raw[2:8])
	if raw[8] != byte(crc) || raw[9] != byte(crc>>8) {
		t.Errorf("crc bytes = % x, want little-endian 0x%04x", raw[8:10], crc)
	}
	if raw[10] != EndMarker {
		t.Errorf("end marker = 0x%02x, want 0x33", raw[10])
	}
	if len(raw) != FrameOverhead+2 {
		t.Errorf("len = %d, want %d", len(raw), FrameOverhead+2)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	maxPayload := bytes.Repeat([]byte{0x42}, MaxPayloadSize)

	tests := []struct {
		name    string
		id      CommandID
		payload []byte
	}{
		{"empty payload command", NewCommandID(ClassCmd0, CmdFeatures), nil},
		{"euler log", NewCommandID(ClassLog0, LogEKFEuler), []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"payload containing sync and end bytes", NewCommandID(ClassLog0, LogStatus), []byte{0xFF, 0x5A, 0x33, 0xFF}},
		{"unknown class and id pass through", NewCommandID(Class(0x7E), 0x99), []byte{0x01}},
		{"maximum payload", NewCommandID(ClassLog1, 0x01), maxPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := mustEncode(t, tt.id, tt.payload)
			if len(raw) > MaxFrameSize {
				t.Fatalf("frame is %d bytes, above MaxFrameSize", len(raw))
			}

			d := NewDecoder()
			d.Feed(raw)
			f, ok := d.Next()
			if !ok {
				t.Fatal("Next() returned no frame")
			}
			if f.ID != tt.id {
				t.Errorf("ID = %s, want %s", f.ID, tt.id)
			}
			if !bytes.Equal(f.Payload, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d", len(f.Payload), len(tt.payload))
			}
			if _, ok := d.Next(); ok {
				t.Error("Next() returned a second frame")
			}
			if d.Buffered() != 0 {
				t.Errorf("Buffered() = %d, want 0", d.Buffered())
			}
		})
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	dst := []byte{0x01}
	out, err := AppendFrame(dst, NewCommandID(ClassCmd0, CmdInfo), make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("error = %v, want ErrPayloadTooLarge", err)
	}
	if !bytes.Equal(out, dst) {
		t.Errorf("dst modified on error: % x", out)
	}
}

func TestAppendFrameKeepsPrefix(t *testing.T) {
	a := mustEncode(t, NewCommandID(ClassLog0, LogStatus), []byte{1})
	out, err := AppendFrame(append([]byte(nil), a...), NewCommandID(ClassLog0, LogUTCTime), []byte{2})
	if err != nil {
		t.Fatal(err)
	}

	d := NewDecoder()
	d.Feed(out)
	var ids []CommandID
	for f := range d.Frames() {
		ids = append(ids, f.ID)
	}
	if len(ids) != 2 || ids[0].ID() != LogStatus || ids[1].ID() != LogUTCTime {
		t.Errorf("decoded ids = %v, want STATUS then UTC_TIME", ids)
	}
}

func TestDecoderByteByByte(t *testing.T) {
	first := mustEncode(t, NewCommandID(ClassLog0, LogIMUData), []byte{9, 8, 7})
	second := mustEncode(t, NewCommandID(ClassCmd0, CmdAck), []byte{0x21, 0x10, 0x00, 0x00})
	stream := append(append([]byte{0x00, 0x13}, first...), second...)

	d := NewDecoder()
	var got []Frame
	for _, b := range stream {
		d.Feed([]byte{b})
		for f := range d.Frames() {
			got = append(got, f)
		}
	}

	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if got[0].ID.ID() != LogIMUData || got[1].ID.ID() != CmdAck {
		t.Errorf("frames = %v, %v", got[0], got[1])
	}
	if s := d.Stats(); s.Frames != 2 || s.DiscardedBytes != 2 {
		t.Errorf("Stats() = %+v, want 2 frames and 2 discarded bytes", s)
	}
}

func TestDecoderRetainsOnlyPartialFrame(t *testing.T) {
	raw := mustEncode(t, NewCommandID(ClassLog0, LogStatus), []byte{1, 2, 3})

	d := NewDecoder()
	d.Feed([]byte{0x10, 0x20, 0x30, SyncByte1})
	if _, ok := d.Next(); ok {
		t.Fatal("unexpected frame")
	}
	if d.Buffered() != 1 {
		t.Fatalf("Buffered() = %d, want 1 (trailing sync byte)", d.Buffered())
	}

	d.Feed(raw[1:])
	f, ok := d.Next()
	if !ok || f.ID.ID() != LogStatus {
		t.Fatalf("Next() = %v, %v; want STATUS frame", f, ok)
	}

	d.Feed(raw[:5])
	if _, ok := d.Next(); ok {
		t.Fatal("unexpected frame from partial header")
	}
	if d.Buffered() != 5 {
		t.Errorf("Buffered() = %d, want 5", d.Buffered())
	}
	d.Reset()
	if d.Buffered() != 0 || d.Stats().TruncatedFrames != 1 {
		t.Errorf("after Reset: Buffered() = %d, TruncatedFrames = %d", d.Buffered(), d.Stats().TruncatedFrames)
	}
}

func TestDecoderCorruptionResilience(t *testing.T) {
	first := mustEncode(t, NewCommandID(ClassLog0, LogEKFEuler), []byte{0x01, 0x02, 0x03, 0x04})
	second := mustEncode(t, NewCommandID(ClassLog0, LogEKFNav), []byte{0x11, 0x22, 0x33})

	for i := range first {
		corrupted := append([]byte(nil), first...)
		corrupted[i] ^= 0xFF

		d := NewDecoder()
		d.Feed(corrupted)
		d.Feed(second)

		var got []Frame
		for f := range d.Frames() {
			got = append(got, f)
		}

		if len(got) != 1 {
			t.Errorf("flip byte %d: got %d frames, want only the second", i, len(got))
			continue
		}
		if got[0].ID.ID() != LogEKFNav || !bytes.Equal(got[0].Payload, []byte{0x11, 0x22, 0x33}) {
			t.Errorf("flip byte %d: got %v, want EKF_NAV frame", i, got[0])
		}
		if d.Buffered() != 0 {
			t.Errorf("flip byte %d: Buffered() = %d, want 0", i, d.Buffered())
		}
	}
}

func TestDecoderLengthBitFlip(t *testing.T) {
	first := mustEncode(t, NewCommandID(ClassLog0, LogEKFEuler), []byte{0x01, 0x02, 0x03, 0x04})
	second := mustEncode(t, NewCommandID(ClassLog0, LogEKFNav), []byte{0x11, 0x22, 0x33})

	for bit := 0; bit < 8; bit++ {
		corrupted := append([]byte(nil), first...)
		corrupted[4] ^= 1 << bit

		d := NewDecoder()
		d.Feed(corrupted)
		d.Feed(second)

		f, ok := d.Next()
		if !ok || f.ID.ID() != LogEKFNav {
			t.Errorf("bit %d: Next() = %v, %v; want EKF_NAV frame", bit, f, ok)
			continue
		}
		if s := d.Stats(); s.ChecksumErrors+s.MalformedFrames == 0 {
			t.Errorf("bit %d: corrupted frame was not counted: %+v", bit, s)
		}
	}
}

func TestDecoderWaitsForIncompleteFrame(t *testing.T) {
	raw := mustEncode(t, NewCommandID(ClassLog0, LogStatus), []byte{0xA0, 0xA1, 0xA2})

	d := NewDecoder()
	d.Feed(raw[:len(raw)-1])
	if _, ok := d.Next(); ok {
		t.Fatal("unexpected frame")
	}
	if d.Buffered() != len(raw)-1 || d.Stats().MalformedFrames != 0 {
		t.Fatalf("Buffered() = %d, stats = %+v; want the candidate kept", d.Buffered(), d.Stats())
	}

	d.Feed(raw[len(raw)-1:])
	if f, ok := d.Next(); !ok || f.ID.ID() != LogStatus {
		t.Errorf("Next() = %v, %v; want STATUS frame", f, ok)
	}
}

func TestDecoderCountsDrops(t *testing.T) {
	good := mustEncode(t, NewCommandID(ClassLog0, LogStatus), []byte{0xA0})

	badCRC := append([]byte(nil), good...)
	badCRC[len(badCRC)-2] ^= 0x01

	badEnd := append([]byte(nil), good...)
	badEnd[len(badEnd)-1] = 0x00

	oversize := []byte{SyncByte1, SyncByte2, 0x00, 0x01, 0xFF, 0xFF}

	tests := []struct {
		name   string
		prefix []byte
		check  func(t *testing.T, s Stats)
	}{
		{
			name:   "checksum mismatch",
			prefix: badCRC,
			check: func(t *testing.T, s Stats) {
				if s.ChecksumErrors != 1 {
					t.Errorf("ChecksumErrors = %d, want 1", s.ChecksumErrors)
				}
			},
		},
		{
			name:   "bad end marker",
			prefix: badEnd,
			check: func(t *testing.T, s Stats) {
				if s.MalformedFrames != 1 {
					t.Errorf("MalformedFrames = %d, want 1", s.MalformedFrames)
				}
			},
		},
		{
			name:   "length above maximum",
			prefix: oversize,
			check: func(t *testing.T, s Stats) {
				if s.MalformedFrames != 1 {
					t.Errorf("MalformedFrames = %d, want 1", s.MalformedFrames)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			d.Feed(tt.prefix)
			d.Feed(good)

			f, ok := d.Next()
			if !ok || !bytes.Equal(f.Payload, []byte{0xA0}) {
				t.Fatalf("Next() = %v, %v; want the valid frame", f, ok)
			}
			s := d.Stats()
			if s.Frames != 1 {
				t.Errorf("Frames = %d, want 1", s.Frames)
			}
			tt.check(t, s)
		})
	}
}

func TestFramesStopEarlyAndRestart(t *testing.T) {
	d := NewDecoder()
	for id := uint8(1); id <= 3; id++ {
		d.Feed(mustEncode(t, NewCommandID(ClassLog0, id), []byte{id}))
	}

	for f := range d.Frames() {
		if f.ID.ID() != 1 {
			t.Fatalf("first frame id = %d, want 1", f.ID.ID())
		}
		break
	}

	d.Feed(mustEncode(t, NewCommandID(ClassLog0, 4), []byte{4}))

	var ids []uint8
	for f := range d.Frames() {
		ids = append(ids, f.ID.ID())
	}
	if !bytes.Equal(ids, []uint8{2, 3, 4}) {
		t.Errorf("remaining ids = %v, want [2 3 4]", ids)
	}
}

func TestDecodedPayloadIsOwned(t *testing.T) {
	d := NewDecoder()
	d.Feed(mustEncode(t, NewCommandID(ClassLog0, LogStatus), []byte{1, 2}))
	f, _ := d.Next()

	d.Feed(mustEncode(t, NewCommandID(ClassLog0, LogStatus), []byte{7, 7}))
	_, _ = d.Next()

	if !bytes.Equal(f.Payload, []byte{1, 2}) {
		t.Errorf("earlier payload changed to % x", f.Payload)
	}
}

func TestVerify(t *testing.T) {
	good := mustEncode(t, NewCommandID(ClassCmd0, CmdInfo), []byte{5, 6})

	flipped := append([]byte(nil), good...)
	flipped[6] ^= 0x80

	tests := []struct {
		name    string
		raw     []byte
		wantErr error
	}{
		{"valid", good, nil},
		{"checksum", flipped, ErrChecksumMismatch},
		{"short", good[:5], ErrMalformedFrame},
		{"trailing byte", append(append([]byte(nil), good...), 0x00), ErrMalformedFrame},
		{"no sync", append([]byte{0x00}, good[1:]...), ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Verify(tt.raw)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify() error = %v", err)
				}
				if f.ID.ID() != CmdInfo {
					t.Errorf("ID = %s", f.ID)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
