// Package redisq implements a sink that pushes serialized events onto a
// Redis list, used as a durable external queue for downstream consumers.
// Grounded on the teacher's internal/infrastructure/cache/redis.go client
// setup and its Redis-backed storage patterns.
package redisq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vectordotdev/vector-sub015/internal/ackfabric"
	"github.com/vectordotdev/vector-sub015/internal/event"
)

// Config configures the target Redis list.
type Config struct {
	Addr string
	Key  string
}

// Sink pushes one JSON-encoded event per Write onto a Redis list via
// RPUSH, in event arrival order.
type Sink struct {
	client *redis.Client
	key    string
}

// New builds a Sink from decoded component options.
func New(name string, options map[string]any) (*Sink, error) {
	cfg := Config{Addr: "127.0.0.1:6379", Key: "vector:" + name}
	if addr, ok := options["addr"].(string); ok {
		cfg.Addr = addr
	}
	if key, ok := options["key"].(string); ok {
		cfg.Key = key
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	return &Sink{client: client, key: cfg.Key}, nil
}

// NewWithClient builds a Sink against an already-constructed client,
// letting tests wire up a miniredis-backed client directly.
func NewWithClient(client *redis.Client, key string) *Sink {
	return &Sink{client: client, key: key}
}

func (s *Sink) Write(ctx context.Context, ev event.Event) (ackfabric.EventStatus, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return ackfabric.Errored, fmt.Errorf("redisq: encode event: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, payload).Err(); err != nil {
		return ackfabric.Errored, fmt.Errorf("redisq: rpush: %w", err)
	}
	return ackfabric.Delivered, nil
}

func (s *Sink) Healthcheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisq: ping: %w", err)
	}
	return nil
}

func (s *Sink) Close() error { return s.client.Close() }
