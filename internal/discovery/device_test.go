package discovery

import "testing"

func TestDeviceAddresses(t *testing.T) {
	tests := []struct {
		name       string
		device     *Device
		wantURL    string
		wantUDP    string
		wantListen int
	}{
		{
			name:       "defaults",
			device:     &Device{IP: "192.168.1.40", Port: 80},
			wantURL:    "http://192.168.1.40:80",
			wantUDP:    "192.168.1.40:1235",
			wantListen: 1234,
		},
		{
			name: "advertised ports",
			device: &Device{IP: "10.0.0.5", Port: 8080, Metadata: map[string]string{
				MetadataInputPort: "6000", MetadataOutputPort: "6001",
			}},
			wantURL:    "http://10.0.0.5:8080",
			wantUDP:    "10.0.0.5:6000",
			wantListen: 6001,
		},
		{
			name:       "invalid advertised port",
			device:     &Device{IP: "10.0.0.5", Port: 80, Metadata: map[string]string{MetadataInputPort: "99999"}},
			wantURL:    "http://10.0.0.5:80",
			wantUDP:    "10.0.0.5:1235",
			wantListen: 1234,
		},
		{
			name:       "IPv6",
			device:     &Device{IP: "fe80::1", Port: 80},
			wantURL:    "http://[fe80::1]:80",
			wantUDP:    "[fe80::1]:1235",
			wantListen: 1234,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.wantURL {
				t.Errorf("BaseURL() = %v, want %v", got, tt.wantURL)
			}
			if got := tt.device.UDPAddr(); got != tt.wantUDP {
				t.Errorf("UDPAddr() = %v, want %v", got, tt.wantUDP)
			}
			if got := tt.device.ListenPort(); got != tt.wantListen {
				t.Errorf("ListenPort() = %v, want %v", got, tt.wantListen)
			}
		})
	}
}

func TestDeviceString(t *testing.T) {
	d := &Device{Family: "ekinox", Serial: "045000123", Hostname: "ekinox-045000123.local.", IP: "192.168.1.40"}
	want := "ekinox 045000123 (ekinox-045000123.local.) at 192.168.1.40"
	if d.String() != want {
		t.Errorf("String() = %q, want %q", d.String(), want)
	}
	if d.GetMetadata("missing") != "" {
		t.Error("GetMetadata on nil metadata returned a value")
	}
}
