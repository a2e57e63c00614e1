package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/muurk/sbgecom/internal/config"
	"github.com/muurk/sbgecom/internal/logging"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialConfig selects a serial port. BaudRate 0 means config.DefaultBaudRate.
type SerialConfig struct {
	Port     string
	BaudRate int
}

// Serial is a Transport over a UART, 8N1.
type Serial struct {
	mu          sync.Mutex
	port        serial.Port
	name        string
	readTimeout time.Duration
	closed      bool
}

// OpenSerial opens the port and flushes stale input.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = config.DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", cfg.Port, err)
	}

	logging.Info("Serial port opened",
		zap.String("port", cfg.Port),
		zap.Int("baud_rate", cfg.BaudRate),
	)

	return &Serial{port: port, name: cfg.Port}, nil
}

// Send writes p completely.
func (s *Serial) Send(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	for len(p) > 0 {
		n, err := s.port.Write(p)
		if err != nil {
			return fmt.Errorf("write %s: %w", s.name, err)
		}
		p = p[n:]
	}
	return nil
}

// Receive reads what is available, waiting at most timeout.
func (s *Serial) Receive(p []byte, timeout time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	if timeout != s.readTimeout {
		if err := s.port.SetReadTimeout(timeout); err != nil {
			return 0, fmt.Errorf("set read timeout on %s: %w", s.name, err)
		}
		s.readTimeout = timeout
	}

	n, err := s.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", s.name, err)
	}
	if n > 0 {
		logging.LogRawBytes("serial rx", p[:n])
	}
	return n, nil
}

// Close closes the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	logging.Info("Serial port closed", zap.String("port", s.name))
	return s.port.Close()
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
