package config

import (
	"errors"
	"fmt"
	"time"
)

// Transport kinds understood by transport.Open.
const (
	TransportSerial = "serial"
	TransportUDP    = "udp"
	TransportReplay = "replay"
)

// DefaultBaudRate is the factory setting of the device main port.
const DefaultBaudRate = 115200

// ErrProfileNotFound is returned when a named profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// Registry represents the entire user configuration file.
type Registry struct {
	Version        int                 `yaml:"version"`
	DefaultProfile string              `yaml:"default_profile,omitempty"`
	Profiles       map[string]*Profile `yaml:"profiles,omitempty"`
	Bridge         *BridgeConfig       `yaml:"bridge,omitempty"`
}

// Profile describes how to reach one device.
// Zero Timeout and Attempts mean the library defaults.
type Profile struct {
	Transport  string        `yaml:"transport"`
	Port       string        `yaml:"port,omitempty"`        // Serial device path, e.g. /dev/ttyUSB0
	BaudRate   int           `yaml:"baud_rate,omitempty"`   // Serial baud rate
	LocalAddr  string        `yaml:"local_addr,omitempty"`  // UDP listen address, e.g. :1235
	RemoteAddr string        `yaml:"remote_addr,omitempty"` // UDP device address, e.g. 192.168.1.1:1234
	File       string        `yaml:"file,omitempty"`        // Capture file for replay
	Timeout    time.Duration `yaml:"timeout,omitempty"`     // Per-attempt reply timeout
	Attempts   int           `yaml:"attempts,omitempty"`    // Command attempts including the first

	// Last identification read from the device
	ProductCode  string    `yaml:"product_code,omitempty"`
	SerialNumber string    `yaml:"serial_number,omitempty"`
	LastSeen     time.Time `yaml:"last_seen,omitempty"`
}

// BridgeConfig configures telemetry fan-out. Credentials are never stored
// here; they come from the environment.
type BridgeConfig struct {
	Device        string        `yaml:"device,omitempty"`         // Name used in subjects and keys
	NATSURL       string        `yaml:"nats_url,omitempty"`       // Empty disables NATS
	SubjectPrefix string        `yaml:"subject_prefix,omitempty"` // NATS subject prefix
	RedisAddr     string        `yaml:"redis_addr,omitempty"`     // Empty disables Redis
	RedisDB       int           `yaml:"redis_db,omitempty"`
	KeyPrefix     string        `yaml:"key_prefix,omitempty"` // Redis key prefix
	TTL           time.Duration `yaml:"ttl,omitempty"`        // Expiry of the latest-value hash
	Encoding      string        `yaml:"encoding,omitempty"`   // json or cbor
	Listen        string        `yaml:"listen,omitempty"`     // WebSocket feed address, empty disables it
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:  1,
		Profiles: make(map[string]*Profile),
		Bridge:   NewBridgeConfig(),
	}
}

// NewBridgeConfig returns the bridge defaults.
func NewBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		Device:        "ins",
		SubjectPrefix: "sbgecom",
		KeyPrefix:     "sbgecom",
		TTL:           30 * time.Second,
		Encoding:      "json",
	}
}

// Profile returns the named profile, or the default profile when name is empty.
func (r *Registry) Profile(name string) (*Profile, error) {
	if name == "" {
		name = r.DefaultProfile
	}
	if name == "" {
		return nil, fmt.Errorf("no profile given and no default profile set: %w", ErrProfileNotFound)
	}
	p, ok := r.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	return p, nil
}

// SetProfile adds or replaces a profile. The first profile becomes the default.
func (r *Registry) SetProfile(name string, p *Profile) {
	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}
	r.Profiles[name] = p
	if r.DefaultProfile == "" {
		r.DefaultProfile = name
	}
}

// RecordDevice stores the identification last read through a profile.
func (r *Registry) RecordDevice(name, productCode, serialNumber string) error {
	p, err := r.Profile(name)
	if err != nil {
		return err
	}
	p.ProductCode = productCode
	p.SerialNumber = serialNumber
	p.LastSeen = time.Now()
	return nil
}

// Validate checks every profile and the default profile reference.
func (r *Registry) Validate() error {
	var errs []error
	if r.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected 1)", r.Version))
	}
	if r.DefaultProfile != "" {
		if _, ok := r.Profiles[r.DefaultProfile]; !ok {
			errs = append(errs, fmt.Errorf("default profile %q: %w", r.DefaultProfile, ErrProfileNotFound))
		}
	}
	for name, p := range r.Profiles {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("profile %q: %w", name, err))
		}
	}
	if r.Bridge != nil {
		if err := r.Bridge.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("bridge: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the fields required by the transport are present.
func (p *Profile) Validate() error {
	switch p.Transport {
	case TransportSerial:
		if p.Port == "" {
			return errors.New("serial transport requires port")
		}
		if p.BaudRate < 0 {
			return fmt.Errorf("invalid baud rate %d", p.BaudRate)
		}
	case TransportUDP:
		if p.RemoteAddr == "" {
			return errors.New("udp transport requires remote_addr")
		}
	case TransportReplay:
		if p.File == "" {
			return errors.New("replay transport requires file")
		}
	default:
		return fmt.Errorf("unknown transport %q (want serial, udp or replay)", p.Transport)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", p.Timeout)
	}
	if p.Attempts < 0 {
		return fmt.Errorf("negative attempts %d", p.Attempts)
	}
	return nil
}

// Validate checks the bridge encoding and TTL.
func (b *BridgeConfig) Validate() error {
	switch b.Encoding {
	case "", "json", "cbor":
	default:
		return fmt.Errorf("unknown encoding %q (want json or cbor)", b.Encoding)
	}
	if b.TTL < 0 {
		return fmt.Errorf("negative ttl %s", b.TTL)
	}
	return nil
}
