package bridge

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/muurk/sbgecom/internal/ecom"
	"github.com/muurk/sbgecom/internal/logging"
	"github.com/muurk/sbgecom/internal/logs"
	"github.com/muurk/sbgecom/internal/protocol"
	"go.uber.org/zap"
)

// DefaultPublishTimeout bounds one Publish call.
const DefaultPublishTimeout = 2 * time.Second

// Stats counts bridge events. It is safe to read from any goroutine.
type Stats struct {
	Events       uint64 `json:"events"`
	Published    uint64 `json:"published"`
	Failed       uint64 `json:"failed"`
	DecodeErrors uint64 `json:"decode_errors"`
}

// Bridge turns frames into events and hands them to a sink.
type Bridge struct {
	device  string
	sink    Sink
	timeout time.Duration

	events       atomic.Uint64
	published    atomic.Uint64
	failed       atomic.Uint64
	decodeErrors atomic.Uint64
}

// New creates a bridge publishing events for device to sink.
func New(device string, sink Sink) *Bridge {
	return &Bridge{device: device, sink: sink, timeout: DefaultPublishTimeout}
}

// Attach registers the bridge as the catch-all log consumer of h. Consumers
// registered for a specific id or class still take precedence.
func (b *Bridge) Attach(h *ecom.Handle) {
	h.OnAnyLog(func(f protocol.Frame) error {
		return b.Forward(context.Background(), f)
	})
}

// Forward decodes f and publishes it. Decode failures are counted and the raw
// payload is still published.
func (b *Bridge) Forward(ctx context.Context, f protocol.Frame) error {
	b.events.Add(1)

	var decoded logs.Log
	l, err := logs.Decode(f.ID, f.Payload)
	switch {
	case err != nil:
		b.decodeErrors.Add(1)
		logging.Debug("Failed to decode log", zap.Stringer("message", f.ID), zap.Error(err))
	case !isUnknown(l):
		decoded = l
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := b.sink.Publish(ctx, NewEvent(b.device, f, decoded)); err != nil {
		b.failed.Add(1)
		return err
	}
	b.published.Add(1)
	return nil
}

// Run polls h until ctx is done. It returns nil on cancellation and the
// error of a failed poll otherwise.
func (b *Bridge) Run(ctx context.Context, h *ecom.Handle, pollInterval time.Duration) error {
	logging.Info("Bridge started", zap.String("device", b.device))
	defer func() {
		logging.Info("Bridge stopped", zap.String("device", b.device), zap.Any("stats", b.Stats()))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if _, err := h.Poll(pollInterval); err != nil {
			return err
		}
	}
}

// Stats returns a snapshot of the counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Events:       b.events.Load(),
		Published:    b.published.Load(),
		Failed:       b.failed.Load(),
		DecodeErrors: b.decodeErrors.Load(),
	}
}

func isUnknown(l logs.Log) bool {
	_, ok := l.(*logs.Unknown)
	return ok
}
