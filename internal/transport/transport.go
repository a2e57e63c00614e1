// Package transport provides the byte-level links used to talk to a device.
//
// A Transport only moves bytes. Framing, retries and timeouts on whole
// exchanges belong to the protocol and ecom packages.
package transport

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/muurk/sbgecom/internal/config"
)

// ErrClosed is returned by operations on a closed transport, and by a replay
// transport once its capture is exhausted.
var ErrClosed = errors.New("transport closed")

// Transport is a bidirectional byte link to one device.
type Transport interface {
	// Send writes all of p or fails.
	Send(p []byte) error
	// Receive reads up to len(p) bytes, waiting at most timeout for the first
	// one. It returns 0, nil when no data arrived in time.
	Receive(p []byte, timeout time.Duration) (int, error)
	// Close releases the link. Further calls fail with ErrClosed.
	Close() error
}

// Open creates the transport described by a configuration profile.
func Open(p *config.Profile) (Transport, error) {
	if p == nil {
		return nil, errors.New("nil profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	switch p.Transport {
	case config.TransportSerial:
		return OpenSerial(SerialConfig{Port: p.Port, BaudRate: p.BaudRate})
	case config.TransportUDP:
		return DialUDP(UDPConfig{LocalAddr: p.LocalAddr, RemoteAddr: p.RemoteAddr})
	case config.TransportReplay:
		f, err := os.Open(p.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open capture: %w", err)
		}
		return NewReplay(f), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", p.Transport)
	}
}
