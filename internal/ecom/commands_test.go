package ecom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/transport/stub"
)

// featuresPayload lays out a features answer by hand so the decoder is
// checked against the wire layout rather than against MarshalBinary.
func featuresPayload(product, serial string) []byte {
	var b []byte
	b = binary.LittleEndian.AppendUint32(b, 1) // IMU only
	b = append(b, 3, 5)                        // GNSS type, update rate
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint32(b, 0)
	field := make([]byte, 32)
	copy(field, product)
	b = append(b, field...)
	field = make([]byte, 32)
	copy(field, serial)
	return append(b, field...)
}

func TestGetFeatures(t *testing.T) {
	raw := featuresPayload("NEO-M8T", "0123456789")
	h, tr := newTestHandle(t, func(tx []byte) [][]byte {
		if sentID(t, tx) != FeaturesID {
			return nil
		}
		return [][]byte{frame(t, FeaturesID, raw)}
	})

	var f Features
	if err := GetFeatures(h, &f); err != nil {
		t.Fatalf("GetFeatures() error = %v", err)
	}

	want := Features{
		SensorFeatures:   SensorFeatureIMU,
		GNSSType:         GNSSTypeUbloxGPSGlonass,
		GNSSUpdateRate:   5,
		GNSSProductCode:  NewFixedString("NEO-M8T"),
		GNSSSerialNumber: NewFixedString("0123456789"),
	}
	if f != want {
		t.Errorf("GetFeatures() = %+v, want %+v", f, want)
	}

	sent := tr.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	request := frame(t, FeaturesID, nil)
	if !bytes.Equal(sent[0], request) {
		t.Errorf("request = % x, want % x", sent[0], request)
	}
	if tr.Pending() != 0 || h.dec.Buffered() != 0 {
		t.Errorf("residual data: %d chunks queued, %d bytes buffered", tr.Pending(), h.dec.Buffered())
	}

	again, err := f.MarshalBinary()
	if err != nil || !bytes.Equal(again, raw) {
		t.Errorf("MarshalBinary() = % x, %v; want the original answer", again, err)
	}
	if f.ProductCode() != "NEO-M8T" || f.SerialNumber() != "0123456789" {
		t.Errorf("ProductCode() = %q, SerialNumber() = %q", f.ProductCode(), f.SerialNumber())
	}
	if got := f.SensorNames(); len(got) != 1 || got[0] != "IMU" {
		t.Errorf("SensorNames() = %v, want [IMU]", got)
	}
}

func TestCommandArguments(t *testing.T) {
	h, tr := newTestHandle(t, nil)

	tests := []struct {
		name string
		call func() error
	}{
		{"features without handle", func() error { return GetFeatures(nil, &Features{}) }},
		{"features without result", func() error { return GetFeatures(h, nil) }},
		{"info without handle", func() error { return GetInfo(nil, &DeviceInfo{}) }},
		{"info without result", func() error { return GetInfo(h, nil) }},
		{"settings without handle", func() error { return ApplySettingsAction(nil, ActionSave) }},
		{"output get without handle", func() error {
			_, err := GetOutputConf(nil, OutputPortA, eulerID)
			return err
		}},
		{"output set without handle", func() error { return SetOutputConf(nil, OutputPortA, eulerID, OutputDiv4) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, ErrNullArgument) {
				t.Errorf("error = %v, want ErrNullArgument", err)
			}
		})
	}
	if len(tr.Sent()) != 0 {
		t.Errorf("argument errors sent %d frames", len(tr.Sent()))
	}
}

func TestGetFeaturesErrors(t *testing.T) {
	tests := []struct {
		name   string
		answer []byte
		check  func(t *testing.T, err error)
	}{
		{
			name: "silent device",
			check: func(t *testing.T, err error) {
				if !IsTimeout(err) {
					t.Errorf("error = %v, want timeout", err)
				}
				var e *Error
				if errors.As(err, &e) && e.Attempts != DefaultAttempts {
					t.Errorf("Attempts = %d, want %d", e.Attempts, DefaultAttempts)
				}
			},
		},
		{
			name:   "truncated answer",
			answer: featuresPayload("NEO-M8T", "")[:40],
			check: func(t *testing.T, err error) {
				if ClassifyError(err) != ErrTypeOutOfBounds {
					t.Errorf("ClassifyError(%v) = %v, want OutOfBounds", err, ClassifyError(err))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandle(t, func(tx []byte) [][]byte {
				if tt.answer == nil {
					return nil
				}
				return [][]byte{frame(t, FeaturesID, tt.answer)}
			})
			var f Features
			tt.check(t, GetFeatures(h, &f))
		})
	}
}

func TestGetInfo(t *testing.T) {
	want := DeviceInfo{
		ProductCode:      NewFixedString("ELLIPSE2-D-G4A3-B1"),
		SerialNumber:     45000123,
		CalibrationRev:   7,
		CalibrationYear:  2024,
		CalibrationMonth: 3,
		CalibrationDay:   14,
		HardwareRev:      Version(0x02010000),
		FirmwareRev:      Version(0x03020105),
	}
	raw, err := want.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 52 {
		t.Fatalf("MarshalBinary() length = %d, want 52", len(raw))
	}

	h, _ := newTestHandle(t, func(tx []byte) [][]byte {
		return [][]byte{frame(t, InfoID, raw)}
	})

	var got DeviceInfo
	if err := GetInfo(h, &got); err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if got != want {
		t.Errorf("GetInfo() = %+v, want %+v", got, want)
	}
	if got.FirmwareRev.String() != "3.2.1.5" {
		t.Errorf("FirmwareRev = %s, want 3.2.1.5", got.FirmwareRev)
	}
	date, ok := got.CalibrationDate()
	if !ok || !date.Equal(time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CalibrationDate() = %v, %v; want 2024-03-14", date, ok)
	}
}

func TestAnswersReencodeExactly(t *testing.T) {
	info := make([]byte, 52)
	copy(info, "ELLIPSE-N\x00rev-b")
	binary.LittleEndian.PutUint32(info[32:], 45000123)

	features := featuresPayload("F9P", "0123")
	features[14+5] = 0x7E // after the terminator

	tests := []struct {
		name    string
		payload []byte
		decode  func(p []byte) ([]byte, error)
		check   func(t *testing.T, p []byte)
	}{
		{
			name:    "uncalibrated info",
			payload: info,
			decode: func(p []byte) ([]byte, error) {
				var d DeviceInfo
				if err := d.UnmarshalBinary(p); err != nil {
					return nil, err
				}
				if _, ok := d.CalibrationDate(); ok {
					t.Error("CalibrationDate() ok for a zero date")
				}
				if d.ProductCode.String() != "ELLIPSE-N" {
					t.Errorf("ProductCode = %q, want ELLIPSE-N", d.ProductCode)
				}
				return d.MarshalBinary()
			},
		},
		{
			name:    "features with bytes after NUL",
			payload: features,
			decode: func(p []byte) ([]byte, error) {
				var f Features
				if err := f.UnmarshalBinary(p); err != nil {
					return nil, err
				}
				if f.ProductCode() != "F9P" {
					t.Errorf("ProductCode() = %q, want F9P", f.ProductCode())
				}
				return f.MarshalBinary()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.decode(tt.payload)
			if err != nil {
				t.Fatalf("round trip error = %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("re-encoded % x, want % x", got, tt.payload)
			}
		})
	}
}

func TestCalibrationDate(t *testing.T) {
	tests := []struct {
		name       string
		year       uint16
		month, day uint8
		wantOK     bool
	}{
		{"valid", 2023, 12, 31, true},
		{"zero", 0, 0, 0, false},
		{"month out of range", 2023, 13, 1, false},
		{"day out of range", 2023, 2, 30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DeviceInfo{CalibrationYear: tt.year, CalibrationMonth: tt.month, CalibrationDay: tt.day}
			if _, ok := d.CalibrationDate(); ok != tt.wantOK {
				t.Errorf("CalibrationDate() ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestApplySettingsActionPayload(t *testing.T) {
	tests := []struct {
		action SettingsAction
		want   byte
	}{
		{ActionReboot, 0},
		{ActionSave, 1},
		{ActionRestoreDefaults, 2},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			h, tr := newTestHandle(t, func(tx []byte) [][]byte {
				return [][]byte{frame(t, AckID, EncodeAck(Ack{ID: SettingsActionID}))}
			})
			if err := ApplySettingsAction(h, tt.action); err != nil {
				t.Fatalf("ApplySettingsAction() error = %v", err)
			}
			f, err := protocol.Verify(tr.Sent()[0])
			if err != nil {
				t.Fatal(err)
			}
			if f.ID != SettingsActionID || !bytes.Equal(f.Payload, []byte{tt.want}) {
				t.Errorf("request = %s % x, want SETTINGS_ACTION %02x", f.ID, f.Payload, tt.want)
			}
		})
	}
}

func TestOutputConf(t *testing.T) {
	// device keeps one mode per (port, log) and answers both get and set
	modes := map[OutputConf]OutputMode{}
	key := func(c OutputConf) OutputConf { return OutputConf{Port: c.Port, Log: c.Log} }

	responder := func(tx []byte) [][]byte {
		f, err := protocol.Verify(tx)
		if err != nil || f.ID != OutputConfID {
			return nil
		}
		if len(f.Payload) == 3 {
			c := OutputConf{Port: OutputPort(f.Payload[0]), Log: protocol.NewCommandID(protocol.Class(f.Payload[2]), f.Payload[1])}
			c.Mode = modes[key(c)]
			answer, _ := c.MarshalBinary()
			return [][]byte{frame(t, OutputConfID, answer)}
		}
		var c OutputConf
		if err := c.UnmarshalBinary(f.Payload); err != nil {
			return [][]byte{frame(t, AckID, EncodeAck(Ack{ID: OutputConfID, Code: CodeInvalidFrame}))}
		}
		modes[key(c)] = c.Mode
		return [][]byte{frame(t, AckID, EncodeAck(Ack{ID: OutputConfID}))}
	}

	h, _ := newTestHandle(t, responder)

	if err := SetOutputConf(h, OutputPortC, eulerID, OutputDiv4); err != nil {
		t.Fatalf("SetOutputConf() error = %v", err)
	}
	mode, err := GetOutputConf(h, OutputPortC, eulerID)
	if err != nil || mode != OutputDiv4 {
		t.Fatalf("GetOutputConf() = %s, %v; want 50Hz", mode, err)
	}
	mode, err = GetOutputConf(h, OutputPortA, eulerID)
	if err != nil || mode != OutputDisabled {
		t.Errorf("GetOutputConf(port A) = %s, %v; want disabled", mode, err)
	}
}

func TestGetOutputConfMismatchedAnswer(t *testing.T) {
	h, _ := newTestHandle(t, func(tx []byte) [][]byte {
		c := OutputConf{Port: OutputPortE, Log: statusID, Mode: OutputDiv200}
		answer, _ := c.MarshalBinary()
		return [][]byte{frame(t, OutputConfID, answer)}
	})

	_, err := GetOutputConf(h, OutputPortA, eulerID)
	if ClassifyError(err) != ErrTypeUnknown {
		t.Errorf("error = %v, want an unexpected answer error", err)
	}
}

func TestOutputMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		str     string
		wantErr bool
	}{
		{in: "disabled", want: OutputDisabled, str: "disabled"},
		{in: "pps", want: OutputPPS, str: "pps"},
		{in: "new_data", want: OutputNewData, str: "new_data"},
		{in: "200", want: OutputMainLoop, str: "200Hz"},
		{in: "50", want: OutputDiv4, str: "50Hz"},
		{in: "1", want: OutputDiv200, str: "1Hz"},
		{in: "div:10", want: OutputDiv10, str: "20Hz"},
		{in: "div:0", wantErr: true},
		{in: "30", wantErr: true},
		{in: "400", wantErr: true},
		{in: "fast", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputMode(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseOutputMode(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseOutputMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
		})
	}
}

func TestAckCodec(t *testing.T) {
	raw := EncodeAck(Ack{ID: OutputConfID, Code: CodeNotReady})
	want := []byte{byte(protocol.CmdOutputConf), byte(protocol.ClassCmd0), 0x0A, 0x00}
	if !bytes.Equal(raw, want) {
		t.Fatalf("EncodeAck() = % x, want % x", raw, want)
	}

	ack, err := DecodeAck(raw)
	if err != nil || ack.ID != OutputConfID || ack.Code != CodeNotReady {
		t.Errorf("DecodeAck() = %+v, %v", ack, err)
	}
	if !IsRetryable(ack.Err()) {
		t.Errorf("NOT_READY ack error %v is not retryable", ack.Err())
	}
	if (Ack{ID: OutputConfID}).Err() != nil {
		t.Error("NO_ERROR ack returned an error")
	}
	if _, err := DecodeAck(raw[:3]); ClassifyError(err) != ErrTypeOutOfBounds {
		t.Errorf("DecodeAck(short) error = %v, want OutOfBounds", err)
	}
}

func TestStubSatisfiesHandleTransport(t *testing.T) {
	tr := stub.New(nil)
	tr.InjectRx(frame(t, statusID, nil))
	h, err := NewHandle(tr)
	if err != nil {
		t.Fatal(err)
	}
	n, err := h.Poll(time.Millisecond)
	if err != nil || n != 1 || h.Stats().FramesDropped != 1 {
		t.Errorf("Poll() = %d, %v with %d dropped; want 1 frame dropped", n, err, h.Stats().FramesDropped)
	}
}
