package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/sbgecom/internal/logging"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes events on per-message subjects.
type NATSSink struct {
	conn   Publisher
	prefix string
	enc    Encoder
}

// NewNATSSink creates a sink publishing through conn.
func NewNATSSink(conn Publisher, prefix string, enc Encoder) *NATSSink {
	return &NATSSink{conn: conn, prefix: prefix, enc: enc}
}

// ConnectNATS connects to url with reconnects enabled.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return conn, nil
}

// Publish encodes e and publishes it. The NATS client buffers writes, so ctx
// is not consulted.
func (s *NATSSink) Publish(_ context.Context, e Event) error {
	data, err := s.enc.Encode(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subject := e.Subject(s.prefix)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
