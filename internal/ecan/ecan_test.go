package ecan

import (
	"errors"
	"math"
	"testing"
)

func TestParseCandump(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
		check   func(t *testing.T, f Frame)
	}{
		{
			name: "bare frame",
			line: "121#E8030000F6FF",
			check: func(t *testing.T, f Frame) {
				if f.ID != MsgIMUAccel || f.DLC != 6 {
					t.Errorf("frame = %v, want IMU_ACCEL with 6 bytes", f)
				}
			},
		},
		{
			name: "log file line with timestamp and interface",
			line: "(1700000000.123456) can0 100#0100000003000400",
			check: func(t *testing.T, f Frame) {
				if f.ID != MsgStatus01 || f.DLC != 8 || f.Data[4] != 0x03 {
					t.Errorf("frame = %v", f)
				}
			},
		},
		{
			name: "dotted data",
			line: "132#00.00.10.27.F0.D8",
			check: func(t *testing.T, f Frame) {
				if f.String() != "132#00001027F0D8" {
					t.Errorf("String() = %q", f.String())
				}
			},
		},
		{
			name: "empty payload",
			line: "207#",
			check: func(t *testing.T, f Frame) {
				if f.DLC != 0 || len(f.Payload()) != 0 {
					t.Errorf("frame = %v, want no data", f)
				}
			},
		},
		{name: "blank", line: "   ", wantErr: true},
		{name: "no separator", line: "can0 121 [6] 00 00", wantErr: true},
		{name: "extended identifier", line: "12345678#00", wantErr: true},
		{name: "identifier out of range", line: "FFF#00", wantErr: true},
		{name: "remote frame", line: "121#R", wantErr: true},
		{name: "odd hex", line: "121#ABC", wantErr: true},
		{name: "more than eight bytes", line: "121#000102030405060708", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseCandump(tt.line)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLine) {
					t.Errorf("ParseCandump(%q) error = %v, want ErrInvalidLine", tt.line, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCandump(%q) error = %v", tt.line, err)
			}
			tt.check(t, f)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		verify func(t *testing.T, m Message)
	}{
		{
			name: "status 01",
			line: "100#40420F0037000100",
			verify: func(t *testing.T, m Message) {
				s := m.(*Status01)
				if s.TimeStamp != 1_000_000 || s.General != 0x37 || s.ClockStatus != 1 {
					t.Errorf("Status01 = %+v", s)
				}
			},
		},
		{
			name: "imu info temperature is signed",
			line: "120#0A000000FF00F6FF",
			verify: func(t *testing.T, m Message) {
				i := m.(*IMUInfo)
				if i.Status != 0xFF || math.Abs(i.Temperature+0.1) > 1e-9 {
					t.Errorf("IMUInfo = %+v, want temperature -0.1", i)
				}
			},
		},
		{
			name: "imu accel",
			line: "121#E8030000AAFC",
			verify: func(t *testing.T, m Message) {
				want := [3]float64{10, 0, -8.54}
				assertVector(t, m, MsgIMUAccel, want)
			},
		},
		{
			name: "imu gyro",
			line: "122#0A00F6FF0000",
			verify: func(t *testing.T, m Message) {
				assertVector(t, m, MsgIMUGyro, [3]float64{0.01, -0.01, 0})
			},
		},
		{
			name: "ekf euler",
			line: "132#0000592F0000",
			verify: func(t *testing.T, m Message) {
				assertVector(t, m, MsgEKFEuler, [3]float64{0, 1.2121, 0})
			},
		},
		{
			name: "identifier without decoder",
			line: "175#0102",
			verify: func(t *testing.T, m Message) {
				r := m.(*Raw)
				if r.MessageID() != MsgGPS1Pos || r.String() != "GPS1_POS{01 02}" {
					t.Errorf("Raw = %s", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseCandump(tt.line)
			if err != nil {
				t.Fatal(err)
			}
			m, err := Decode(f)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			tt.verify(t, m)
		})
	}
}

func TestDecodeShortFrame(t *testing.T) {
	for _, id := range []MessageID{MsgStatus01, MsgIMUInfo, MsgIMUAccel, MsgIMUGyro, MsgEKFEuler} {
		t.Run(id.String(), func(t *testing.T) {
			_, err := Decode(Frame{ID: id, DLC: 5})
			if !errors.Is(err, ErrShortFrame) {
				t.Errorf("Decode() error = %v, want ErrShortFrame", err)
			}
		})
	}
}

func TestMessageIDString(t *testing.T) {
	tests := []struct {
		id    MessageID
		want  string
		known bool
	}{
		{MsgStatus01, "STATUS_01", true},
		{MsgShipMotion01, "SHIP_MOTION_0_1", true},
		{MsgEventTimeD, "EVENT_TIME_D", true},
		{MessageID(0x7FF), "0x7ff", false},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want || tt.id.Known() != tt.known {
			t.Errorf("MessageID(0x%03x) = %q known=%v, want %q known=%v", uint16(tt.id), got, tt.id.Known(), tt.want, tt.known)
		}
	}
}

func assertVector(t *testing.T, m Message, id MessageID, want [3]float64) {
	t.Helper()
	v, ok := m.(*Vector)
	if !ok {
		t.Fatalf("message is %T, want *Vector", m)
	}
	if v.MessageID() != id {
		t.Errorf("MessageID() = %s, want %s", v.MessageID(), id)
	}
	for i := range want {
		if math.Abs(v.Values[i]-want[i]) > 1e-9 {
			t.Errorf("Values[%d] = %v, want %v", i, v.Values[i], want[i])
		}
	}
}
