package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// TXT record keys a unit may publish for its sbgECom UDP ports.
const (
	MetadataInputPort  = "ecom_in"
	MetadataOutputPort = "ecom_out"
)

// Device is an inertial unit found on the network.
type Device struct {
	// Family is the product family in lower case, e.g. "ekinox"
	Family string

	// Serial is the serial number taken from the hostname
	Serial string

	// Hostname is the mDNS hostname, e.g. "ekinox-045000123.local."
	Hostname string

	// IP is the IPv4 address, or IPv6 when the unit has no IPv4
	IP string

	// Port is the web interface port
	Port int

	// Metadata holds the mDNS TXT records
	Metadata map[string]string

	// DiscoveredAt is when the advertisement was received
	DiscoveredAt time.Time
}

// String returns a human-readable description of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s %s (%s) at %s", d.Family, d.Serial, d.Hostname, d.IP)
}

// BaseURL returns the web interface URL
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// UDPAddr returns the address the unit reads commands on.
func (d *Device) UDPAddr() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.portFromMetadata(MetadataInputPort, DefaultInputPort)))
}

// ListenPort returns the local port the unit sends its output to.
func (d *Device) ListenPort() int {
	return d.portFromMetadata(MetadataOutputPort, DefaultOutputPort)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

func (d *Device) portFromMetadata(key string, fallback int) int {
	port, err := strconv.Atoi(d.GetMetadata(key))
	if err != nil || port <= 0 || port > 65535 {
		return fallback
	}
	return port
}
