package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/muurk/sbgecom/internal/logging"
	"go.uber.org/zap"
)

// UDPConfig selects the device endpoint. Ethernet units send logs to one port
// and listen for commands on another, so LocalAddr is usually set too.
type UDPConfig struct {
	LocalAddr  string // e.g. ":1235"; empty picks an ephemeral port
	RemoteAddr string // e.g. "192.168.1.1:1234"
}

// UDP is a Transport over a datagram socket. Datagrams from hosts other than
// the device are ignored.
type UDP struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	remote *net.UDPAddr
	closed bool
}

// DialUDP binds the local address and resolves the device address.
func DialUDP(cfg UDPConfig) (*UDP, error) {
	remote, err := net.ResolveUDPAddr("udp", cfg.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid remote address %q: %w", cfg.RemoteAddr, err)
	}

	var local *net.UDPAddr
	if cfg.LocalAddr != "" {
		local, err = net.ResolveUDPAddr("udp", cfg.LocalAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid local address %q: %w", cfg.LocalAddr, err)
		}
	}

	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %q: %w", cfg.LocalAddr, err)
	}

	logging.Info("UDP transport ready",
		zap.String("local_addr", conn.LocalAddr().String()),
		zap.String("remote_addr", remote.String()),
	)

	return &UDP{conn: conn, remote: remote}, nil
}

// LocalAddr returns the bound address.
func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// Send writes p as one datagram.
func (u *UDP) Send(p []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrClosed
	}
	if _, err := u.conn.WriteToUDP(p, u.remote); err != nil {
		return fmt.Errorf("send to %s: %w", u.remote, err)
	}
	return nil
}

// Receive reads one datagram from the device. p should hold a full frame.
func (u *UDP) Receive(p []byte, timeout time.Duration) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return 0, ErrClosed
	}
	deadline := time.Now().Add(timeout)
	if err := u.conn.SetReadDeadline(deadline); err != nil {
		return 0, fmt.Errorf("set deadline: %w", err)
	}

	for {
		n, from, err := u.conn.ReadFromUDP(p)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("receive: %w", err)
		}
		if !from.IP.Equal(u.remote.IP) {
			logging.Debug("Ignoring datagram from unexpected host", zap.Stringer("from", from))
			if time.Now().After(deadline) {
				return 0, nil
			}
			continue
		}
		logging.LogRawBytes("udp rx", p[:n])
		return n, nil
	}
}

// Close closes the socket.
func (u *UDP) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true
	return u.conn.Close()
}
