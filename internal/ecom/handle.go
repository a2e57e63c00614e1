package ecom

import (
	"time"

	"github.com/muurk/sbgecom/internal/logging"
	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/transport"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the time allowed for each attempt to get a reply.
	DefaultTimeout = 500 * time.Millisecond

	// DefaultAttempts is the number of times a command is sent before giving up.
	DefaultAttempts = 3

	// Large enough for a UDP datagram carrying a full frame.
	receiveBufferSize = 2 * protocol.MaxFrameSize
)

// State is the request state of a Handle.
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingReply:
		return "AwaitingReply"
	default:
		return "Unknown"
	}
}

// LogHandler consumes an unsolicited frame. A returned error is logged and
// does not stop processing.
type LogHandler func(f protocol.Frame) error

// CallOptions overrides the handle defaults for one call. Zero fields keep
// the defaults.
type CallOptions struct {
	Timeout  time.Duration
	Attempts int
}

// Stats counts handle events.
type Stats struct {
	FramesReceived uint64 // frames decoded from the transport
	LogsDispatched uint64 // frames handed to a log consumer
	FramesDropped  uint64 // frames with no reply waiting and no consumer
	Timeouts       uint64 // reply windows that expired
	Retries        uint64 // commands sent again after a failed attempt
	Decoder        protocol.Stats
}

// Handle is a session with one device over one transport.
//
// Every operation runs on the caller's goroutine and blocks until it
// completes. A Handle is not safe for concurrent use: callers sharing one must
// serialize access. Log consumers run inside the call that received the
// frame and must not call back into the Handle.
type Handle struct {
	t        transport.Transport
	dec      *protocol.Decoder
	rx       []byte
	timeout  time.Duration
	attempts int

	state    State
	pending  protocol.CommandID
	deadline time.Time

	byID    map[protocol.CommandID]LogHandler
	byClass map[protocol.Class]LogHandler
	any     LogHandler

	stats  Stats
	closed bool
}

// NewHandle creates an idle handle bound to t.
func NewHandle(t transport.Transport) (*Handle, error) {
	if t == nil {
		return nil, newNullArgument("NewHandle", "transport")
	}
	return &Handle{
		t:        t,
		dec:      protocol.NewDecoder(),
		rx:       make([]byte, receiveBufferSize),
		timeout:  DefaultTimeout,
		attempts: DefaultAttempts,
		byID:     make(map[protocol.CommandID]LogHandler),
		byClass:  make(map[protocol.Class]LogHandler),
	}, nil
}

// SetTimeout sets the per-attempt reply timeout. Non-positive values restore the default.
func (h *Handle) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h.timeout = timeout
}

// SetAttempts sets how many times a command is sent. Values below 1 restore the default.
func (h *Handle) SetAttempts(attempts int) {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	h.attempts = attempts
}

// Timeout returns the per-attempt reply timeout.
func (h *Handle) Timeout() time.Duration { return h.timeout }

// Attempts returns the number of attempts per command.
func (h *Handle) Attempts() int { return h.attempts }

// State returns the request state.
func (h *Handle) State() State { return h.state }

// Pending returns the command awaiting a reply, if any.
func (h *Handle) Pending() (protocol.CommandID, bool) {
	return h.pending, h.state == StateAwaitingReply
}

// Deadline returns when the current reply window closes. It is zero while idle.
func (h *Handle) Deadline() time.Time { return h.deadline }

// Stats returns a snapshot of the handle and decoder counters.
func (h *Handle) Stats() Stats {
	s := h.stats
	s.Decoder = h.dec.Stats()
	return s
}

// OnLog registers the consumer for one message id.
func (h *Handle) OnLog(id protocol.CommandID, fn LogHandler) {
	if fn == nil {
		h.RemoveLog(id)
		return
	}
	h.byID[id] = fn
}

// OnClass registers the consumer for every message of a class without an
// id-specific consumer.
func (h *Handle) OnClass(class protocol.Class, fn LogHandler) {
	if fn == nil {
		h.RemoveClass(class)
		return
	}
	h.byClass[class] = fn
}

// OnAnyLog registers the consumer of last resort. nil removes it.
func (h *Handle) OnAnyLog(fn LogHandler) {
	h.any = fn
}

// RemoveLog removes the consumer for id.
func (h *Handle) RemoveLog(id protocol.CommandID) {
	delete(h.byID, id)
}

// RemoveClass removes the consumer for class.
func (h *Handle) RemoveClass(class protocol.Class) {
	delete(h.byClass, class)
}

// SendCommand transmits one command frame and arms the reply wait.
func (h *Handle) SendCommand(id protocol.CommandID, payload []byte) error {
	op := id.String()
	if h.closed {
		return newTransportError(op, transport.ErrClosed)
	}
	raw, err := protocol.Encode(id, payload)
	if err != nil {
		return wrapError(op, err)
	}
	return h.send(id, raw, h.timeout)
}

// WaitForReply waits up to timeout for a frame with the given id. Other
// frames received meanwhile go to their log consumers. Non-positive timeouts
// use the handle timeout.
func (h *Handle) WaitForReply(id protocol.CommandID, timeout time.Duration) ([]byte, error) {
	op := id.String()
	if h.closed {
		return nil, newTransportError(op, transport.ErrClosed)
	}
	if timeout <= 0 {
		timeout = h.timeout
	}
	f, err := h.wait(op, func(f protocol.Frame) bool { return f.ID == id }, timeout)
	if err != nil {
		return nil, err
	}
	return f.Payload, nil
}

// Call sends a command and returns the payload of the reply with the same id,
// retrying with the handle defaults. An ACK reporting an error for the
// command ends the call with a device error.
func (h *Handle) Call(id protocol.CommandID, payload []byte) ([]byte, error) {
	return h.CallWithOptions(id, payload, CallOptions{})
}

// CallWithOptions is Call with explicit timeout and attempts.
func (h *Handle) CallWithOptions(id protocol.CommandID, payload []byte, opts CallOptions) ([]byte, error) {
	match := func(f protocol.Frame) bool {
		if f.ID == id {
			return true
		}
		ack, ok := ackFor(f, id)
		return ok && ack.Code != CodeNoError
	}
	resolve := func(f protocol.Frame) error {
		if f.ID == id {
			return nil
		}
		ack, _ := DecodeAck(f.Payload)
		return ack.Err()
	}

	f, err := h.exchange(id, payload, opts, match, resolve)
	if err != nil {
		return nil, err
	}
	return f.Payload, nil
}

// CallAck sends a command answered by an ACK frame. A non-zero ACK code is
// returned as a device error; NOT_READY is retried.
func (h *Handle) CallAck(id protocol.CommandID, payload []byte) error {
	return h.CallAckWithOptions(id, payload, CallOptions{})
}

// CallAckWithOptions is CallAck with explicit timeout and attempts.
func (h *Handle) CallAckWithOptions(id protocol.CommandID, payload []byte, opts CallOptions) error {
	match := func(f protocol.Frame) bool {
		_, ok := ackFor(f, id)
		return ok
	}
	resolve := func(f protocol.Frame) error {
		ack, _ := DecodeAck(f.Payload)
		return ack.Err()
	}

	_, err := h.exchange(id, payload, opts, match, resolve)
	return err
}

// Poll receives for at most timeout and dispatches every frame to the log
// consumers. It returns the number of frames decoded.
func (h *Handle) Poll(timeout time.Duration) (int, error) {
	if h.closed {
		return 0, newTransportError("Poll", transport.ErrClosed)
	}

	if n := h.dispatchBuffered(); n > 0 {
		return n, nil
	}

	n, err := h.t.Receive(h.rx, timeout)
	if err != nil {
		return 0, newTransportError("Poll", err)
	}
	h.dec.Feed(h.rx[:n])
	return h.dispatchBuffered(), nil
}

// Close closes the transport. Every later operation fails with a transport error.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.setIdle()
	if err := h.t.Close(); err != nil {
		return newTransportError("Close", err)
	}
	return nil
}

// exchange runs the send/wait loop. Timeouts and retryable device answers
// consume an attempt; anything else ends the call.
func (h *Handle) exchange(id protocol.CommandID, payload []byte, opts CallOptions,
	match func(protocol.Frame) bool, resolve func(protocol.Frame) error) (protocol.Frame, error) {
	op := id.String()
	if h.closed {
		return protocol.Frame{}, newTransportError(op, transport.ErrClosed)
	}

	timeout, attempts := h.timeout, h.attempts
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if opts.Attempts > 0 {
		attempts = opts.Attempts
	}

	raw, err := protocol.Encode(id, payload)
	if err != nil {
		return protocol.Frame{}, wrapError(op, err)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			h.stats.Retries++
			logging.Warn("Retrying command",
				zap.String("message", op),
				zap.Int("attempt", attempt),
				zap.Int("attempts", attempts),
				zap.Error(lastErr),
			)
		}

		if err := h.send(id, raw, timeout); err != nil {
			return protocol.Frame{}, err
		}

		f, err := h.wait(op, match, timeout)
		if err == nil {
			err = resolve(f)
		}
		if err == nil {
			return f, nil
		}
		if !IsRetryable(err) {
			return protocol.Frame{}, err
		}
		lastErr = err
	}

	if IsTimeout(lastErr) {
		return protocol.Frame{}, newTimeout(op, attempts, timeout)
	}
	return protocol.Frame{}, lastErr
}

func (h *Handle) send(id protocol.CommandID, raw []byte, timeout time.Duration) error {
	if err := h.t.Send(raw); err != nil {
		h.setIdle()
		logging.Error("Failed to send command", zap.Stringer("message", id), zap.Error(err))
		return newTransportError(id.String(), err)
	}
	logging.LogFrame("tx", id, raw[protocol.HeaderSize:len(raw)-3])

	h.state = StateAwaitingReply
	h.pending = id
	h.deadline = time.Now().Add(timeout)
	return nil
}

// wait polls the transport until match accepts a frame or timeout elapses.
// Frames decoded after the match stay in the decoder for the next call.
func (h *Handle) wait(op string, match func(protocol.Frame) bool, timeout time.Duration) (protocol.Frame, error) {
	deadline := time.Now().Add(timeout)
	h.deadline = deadline

	for {
		for f := range h.dec.Frames() {
			h.stats.FramesReceived++
			logging.LogFrame("rx", f.ID, f.Payload)
			if match(f) {
				h.setIdle()
				return f, nil
			}
			h.dispatch(f)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			h.setIdle()
			h.stats.Timeouts++
			logging.Debug("Reply window expired", zap.String("message", op), zap.Duration("timeout", timeout))
			return protocol.Frame{}, newTimeout(op, 1, timeout)
		}

		n, err := h.t.Receive(h.rx, remaining)
		if err != nil {
			h.setIdle()
			return protocol.Frame{}, newTransportError(op, err)
		}
		h.dec.Feed(h.rx[:n])
	}
}

func (h *Handle) dispatchBuffered() int {
	count := 0
	for f := range h.dec.Frames() {
		h.stats.FramesReceived++
		logging.LogFrame("rx", f.ID, f.Payload)
		h.dispatch(f)
		count++
	}
	return count
}

// dispatch hands f to the most specific consumer: id, then class, then the
// catch-all. Frames without a consumer are dropped.
func (h *Handle) dispatch(f protocol.Frame) {
	fn := h.byID[f.ID]
	if fn == nil {
		fn = h.byClass[f.ID.Class()]
	}
	if fn == nil {
		fn = h.any
	}
	if fn == nil {
		h.stats.FramesDropped++
		logging.Debug("No consumer for frame", zap.Stringer("message", f.ID))
		return
	}

	h.stats.LogsDispatched++
	if err := fn(f); err != nil {
		logging.Warn("Log consumer failed", zap.Stringer("message", f.ID), zap.Error(err))
	}
}

func (h *Handle) setIdle() {
	h.state = StateIdle
	h.pending = 0
	h.deadline = time.Time{}
}
