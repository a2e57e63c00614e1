// Package stub provides a scripted in-memory transport for host-side tests.
package stub

import (
	"sync"
	"time"

	"github.com/muurk/sbgecom/internal/transport"
)

// Responder is called with every sent buffer and returns the chunks the
// device answers with. Each chunk becomes available to Receive in order.
type Responder func(tx []byte) [][]byte

// Transport records sends and serves queued receive chunks.
// Receive on an empty queue sleeps for the timeout and reports no data.
type Transport struct {
	mu        sync.Mutex
	rx        [][]byte
	sent      [][]byte
	closed    bool
	responder Responder

	// FailSend, when set, is returned by every Send.
	FailSend error
	// FailReceive, when set, is returned by Receive once the queue is empty.
	FailReceive error
	// Idle is called when Receive finds nothing to return. Tests use it to
	// count polls or to inject data late.
	Idle func()
}

var _ transport.Transport = (*Transport)(nil)

// New creates a stub with an optional responder.
func New(responder Responder) *Transport {
	return &Transport{responder: responder}
}

// InjectRx queues bytes for Receive.
func (t *Transport) InjectRx(chunks ...[]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range chunks {
		t.rx = append(t.rx, append([]byte(nil), c...))
	}
}

// Send records p and queues the responder's answer.
func (t *Transport) Send(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return transport.ErrClosed
	}
	if t.FailSend != nil {
		return t.FailSend
	}
	tx := append([]byte(nil), p...)
	t.sent = append(t.sent, tx)
	if t.responder != nil {
		t.rx = append(t.rx, t.responder(tx)...)
	}
	return nil
}

// Receive copies the head of the queue into p. A chunk larger than p is split.
func (t *Transport) Receive(p []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, transport.ErrClosed
	}
	if len(t.rx) == 0 {
		fail, idle := t.FailReceive, t.Idle
		t.mu.Unlock()
		if fail != nil {
			return 0, fail
		}
		if idle != nil {
			idle()
		}
		time.Sleep(timeout)
		return 0, nil
	}
	defer t.mu.Unlock()

	n := copy(p, t.rx[0])
	if n < len(t.rx[0]) {
		t.rx[0] = t.rx[0][n:]
	} else {
		t.rx = t.rx[1:]
	}
	return n, nil
}

// Close marks the stub closed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Sent returns copies of every buffer passed to Send.
func (t *Transport) Sent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

// Pending returns the number of queued receive chunks.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rx)
}
