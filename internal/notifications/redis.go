package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultRedisChannel = "pedidobot:events"

// Envelope is the JSON document published on the Redis channel.
type Envelope struct {
	Event     string    `json:"event"`
	EmittedAt time.Time `json:"emitted_at"`
	Payload   any       `json:"payload"`
}

// Redis publishes events on a pub/sub channel for the dashboard.
type Redis struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

// NewRedis parses a redis:// URL and returns an emitter. The connection is
// established lazily on the first publish.
func NewRedis(rawURL, channel string) (*Redis, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis_url: %w", err)
	}
	return NewRedisWithClient(redis.NewClient(opts), channel), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, channel string) *Redis {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = defaultRedisChannel
	}
	return &Redis{client: client, channel: channel, now: time.Now}
}

// Channel returns the pub/sub channel name.
func (r *Redis) Channel() string { return r.channel }

// Emit implements Emitter.
func (r *Redis) Emit(ctx context.Context, event string, data any) error {
	if r == nil || r.client == nil {
		return nil
	}
	body, err := encodeEnvelope(event, data, r.now())
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// Close releases the client connection pool.
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func encodeEnvelope(event string, data any, at time.Time) ([]byte, error) {
	body, err := json.Marshal(Envelope{Event: event, EmittedAt: at.UTC(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", event, err)
	}
	return body, nil
}
