package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Replay feeds a recorded byte stream to the decoder. Sends are accepted and
// discarded, so a command is answered only by a reply present in the capture.
// Once the capture is drained every receive fails with ErrClosed.
type Replay struct {
	mu     sync.Mutex
	r      io.Reader
	sent   int
	closed bool
}

// NewReplay creates a replay transport over r. If r is an io.Closer it is
// closed by Close.
func NewReplay(r io.Reader) *Replay {
	return &Replay{r: r}
}

// Send discards p.
func (t *Replay) Send(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	t.sent += len(p)
	return nil
}

// Receive returns the next chunk of the capture. Once the capture is drained
// it returns ErrClosed.
func (t *Replay) Receive(p []byte, _ time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	n, err := t.r.Read(p)
	if n > 0 {
		return n, nil
	}
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("end of capture: %w", ErrClosed)
	}
	if err != nil {
		return 0, fmt.Errorf("read capture: %w", err)
	}
	return 0, nil
}

// Sent returns the number of bytes discarded by Send.
func (t *Replay) Sent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent
}

// Close closes the underlying reader when it supports it.
func (t *Replay) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if c, ok := t.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
