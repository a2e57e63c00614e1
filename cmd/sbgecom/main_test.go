package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muurk/sbgecom/internal/config"
	"github.com/muurk/sbgecom/internal/ecan"
	"github.com/muurk/sbgecom/internal/ecom"
	"github.com/muurk/sbgecom/internal/protocol"
)

func TestResolveProfile(t *testing.T) {
	reg := config.NewRegistry()
	reg.SetProfile("lab", &config.Profile{
		Transport:  config.TransportUDP,
		RemoteAddr: "10.0.0.5:1234",
		LocalAddr:  ":1235",
		Timeout:    time.Second,
	})
	reg.SetProfile("bench", &config.Profile{Transport: config.TransportSerial, Port: "/dev/ttyS1"})

	tests := []struct {
		name    string
		opts    options
		reg     *config.Registry
		wantErr error
		check   func(t *testing.T, p *config.Profile, name string)
	}{
		{
			name: "serial flag gets default baud",
			opts: options{port: "/dev/ttyUSB0"},
			check: func(t *testing.T, p *config.Profile, name string) {
				if p.Transport != config.TransportSerial || p.BaudRate != config.DefaultBaudRate {
					t.Errorf("profile = %+v", p)
				}
				if name != "" {
					t.Errorf("name = %q, want empty", name)
				}
			},
		},
		{
			name: "replay wins over udp",
			opts: options{replay: "cap.bin", udpRemote: "1.2.3.4:1234"},
			check: func(t *testing.T, p *config.Profile, _ string) {
				if p.Transport != config.TransportReplay || p.File != "cap.bin" {
					t.Errorf("profile = %+v", p)
				}
			},
		},
		{
			name: "default profile with overrides",
			opts: options{attempts: 5},
			reg:  reg,
			check: func(t *testing.T, p *config.Profile, name string) {
				if name != "lab" {
					t.Errorf("name = %q, want lab", name)
				}
				if p.RemoteAddr != "10.0.0.5:1234" || p.Timeout != time.Second || p.Attempts != 5 {
					t.Errorf("profile = %+v", p)
				}
			},
		},
		{
			name: "named profile is not modified",
			opts: options{profile: "bench", baud: 921600},
			reg:  reg,
			check: func(t *testing.T, p *config.Profile, _ string) {
				if p.BaudRate != 921600 {
					t.Errorf("BaudRate = %d, want 921600", p.BaudRate)
				}
				if reg.Profiles["bench"].BaudRate != 0 {
					t.Error("stored profile was modified")
				}
			},
		},
		{
			name:    "unknown profile",
			opts:    options{profile: "missing"},
			reg:     reg,
			wantErr: config.ErrProfileNotFound,
		},
		{
			name:    "nothing given",
			reg:     config.NewRegistry(),
			wantErr: errNoConnection,
		},
		{
			name:    "no registry",
			wantErr: errNoConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, name, err := tt.opts.resolveProfile(tt.reg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("resolveProfile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveProfile() error = %v", err)
			}
			tt.check(t, p, name)
		})
	}
}

func TestBridgeConfig(t *testing.T) {
	t.Setenv(config.EnvNATSURL, "nats://env:4222")
	t.Setenv(config.EnvRedisAddr, "")
	t.Setenv(config.EnvRedisDB, "")

	saved := bridgeFlags
	t.Cleanup(func() { bridgeFlags = saved })

	bridgeFlags.redisDB = -1
	bridgeFlags.listen = ":8080"
	bridgeFlags.encoding = "cbor"

	cfg, err := bridgeConfig(nil)
	if err != nil {
		t.Fatalf("bridgeConfig() error = %v", err)
	}
	if cfg.NATSURL != "nats://env:4222" {
		t.Errorf("NATSURL = %q, want env value", cfg.NATSURL)
	}
	if cfg.Listen != ":8080" || cfg.Encoding != "cbor" || cfg.Device != "ins" {
		t.Errorf("cfg = %+v", cfg)
	}

	bridgeFlags.encoding = "xml"
	if _, err := bridgeConfig(nil); err == nil {
		t.Error("bridgeConfig() accepted encoding xml")
	}

	t.Setenv(config.EnvNATSURL, "")
	bridgeFlags.encoding = ""
	bridgeFlags.listen = ""
	if _, err := bridgeConfig(nil); err == nil {
		t.Error("bridgeConfig() accepted a bridge without destination")
	}
}

func TestDecodeCAN(t *testing.T) {
	input := strings.Join([]string{
		"# capture",
		"(1700000000.000001) can0 121#E803F4010000",
		"",
		"100#0A000000",
		"132#1027",
		"7FF#0102",
		"not a frame",
	}, "\n")

	tests := []struct {
		name        string
		json        bool
		strict      bool
		wantDecoded int
		wantSkipped int
		wantErr     bool
		check       func(t *testing.T, out string)
	}{
		{
			name:        "text",
			wantDecoded: 2,
			wantSkipped: 3,
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "IMU_ACCEL{10.0000, 5.0000, 0.0000}") {
					t.Errorf("missing accel line:\n%s", out)
				}
				if !strings.Contains(out, "0x7ff{01 02}") {
					t.Errorf("missing raw line:\n%s", out)
				}
			},
		},
		{
			name:        "json",
			json:        true,
			wantDecoded: 2,
			wantSkipped: 3,
			check: func(t *testing.T, out string) {
				lines := strings.Split(strings.TrimSpace(out), "\n")
				if len(lines) != 2 {
					t.Fatalf("got %d records, want 2", len(lines))
				}
				var rec struct {
					ID      string          `json:"id"`
					Name    string          `json:"name"`
					Decoded json.RawMessage `json:"decoded"`
				}
				if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
					t.Fatalf("Unmarshal() error = %v", err)
				}
				if rec.ID != "0x121" || rec.Name != ecan.MsgIMUAccel.String() || len(rec.Decoded) == 0 {
					t.Errorf("record = %+v", rec)
				}
				if strings.Contains(lines[1], "decoded") {
					t.Errorf("raw frame has decoded field: %s", lines[1])
				}
			},
		},
		{
			name:        "strict stops at first bad line",
			strict:      true,
			wantDecoded: 1,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			decoded, skipped, err := decodeCAN(strings.NewReader(input), &out, tt.json, tt.strict)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeCAN() error = %v, wantErr %v", err, tt.wantErr)
			}
			if decoded != tt.wantDecoded || skipped != tt.wantSkipped {
				t.Errorf("decoded, skipped = %d, %d, want %d, %d", decoded, skipped, tt.wantDecoded, tt.wantSkipped)
			}
			if tt.check != nil {
				tt.check(t, out.String())
			}
		})
	}
}

func TestFeaturesFromReplay(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SBGECOM_LOG_LEVEL", "")

	want := ecom.Features{
		SensorFeatures:   1,
		GNSSType:         3,
		GNSSUpdateRate:   5,
		GNSSProductCode:  ecom.NewFixedString("OEM7720"),
		GNSSSerialNumber: ecom.NewFixedString("BMHR1234"),
	}
	payload, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	raw, err := protocol.Encode(ecom.FeaturesID, payload)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	capture := filepath.Join(t.TempDir(), "features.bin")
	if err := os.WriteFile(capture, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	saved := opts
	t.Cleanup(func() { opts = saved })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"features", "--replay", capture, "--format", "json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got ecom.Features
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", out.String(), err)
	}
	if got != want {
		t.Errorf("features = %+v, want %+v", got, want)
	}
}

func TestLogsFromReplay(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SBGECOM_LOG_LEVEL", "")

	raw, err := protocol.Encode(protocol.NewCommandID(protocol.ClassLog0, protocol.LogStatus), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	capture := filepath.Join(t.TempDir(), "status.bin")
	if err := os.WriteFile(capture, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	saved := opts
	t.Cleanup(func() { opts = saved })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"logs", "--replay", capture, "--format", "json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v, want a clean end of capture", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), out.String())
	}
	var event struct {
		Class string `json:"class"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", lines[0], err)
	}
	if event.Name != "STATUS" {
		t.Errorf("event name = %q, want STATUS", event.Name)
	}
}
