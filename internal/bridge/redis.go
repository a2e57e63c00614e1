package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// HashWriter is the part of a Redis client the sink uses. *redis.Client
// satisfies it.
type HashWriter interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisSink keeps the latest event of each message in a hash per device.
type RedisSink struct {
	client HashWriter
	prefix string
	ttl    time.Duration
	enc    Encoder
}

// NewRedisSink creates a sink writing through client. A zero ttl disables expiry.
func NewRedisSink(client HashWriter, prefix string, ttl time.Duration, enc Encoder) *RedisSink {
	return &RedisSink{client: client, prefix: prefix, ttl: ttl, enc: enc}
}

// ConnectRedis opens a client and checks the server answers.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// Key returns the hash key for device.
func (s *RedisSink) Key(device string) string {
	return fmt.Sprintf("%s:%s:latest", s.prefix, device)
}

// Publish stores e under its message name and refreshes the expiry.
func (s *RedisSink) Publish(ctx context.Context, e Event) error {
	data, err := s.enc.Encode(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := s.Key(e.Device)
	field := strings.ToLower(e.Name)
	if err := s.client.HSet(ctx, key, field, data, "ts", e.Time.UnixMilli()).Err(); err != nil {
		return fmt.Errorf("hset %s %s: %w", key, field, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return nil
}
