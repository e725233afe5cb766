// Package reloadlock provides a Redis-backed distributed lock guarding
// concurrent configuration reloads across replicas of the same pipeline,
// ported from the teacher's internal/infrastructure/lock/distributed.go.
package reloadlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript only deletes the key if it still holds this holder's token,
// so a lock whose TTL expired and was re-acquired by someone else is never
// released out from under them.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

// Lock is one acquired distributed lock, identified by a random token so
// only its acquirer can release or extend it.
type Lock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// Manager acquires named locks against a shared Redis instance.
type Manager struct {
	client *redis.Client
	prefix string
}

// NewManager builds a Manager keying locks under prefix (e.g.
// "vector:reload:").
func NewManager(client *redis.Client, prefix string) *Manager {
	return &Manager{client: client, prefix: prefix}
}

// Acquire attempts to take the named lock with the given TTL, returning
// false if someone else currently holds it.
func (m *Manager) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lock, bool, error) {
	key := m.prefix + name
	token := uuid.NewString()
	ok, err := m.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reloadlock: acquire %s: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Lock{client: m.client, key: key, token: token, ttl: ttl}, true, nil
}

// Release drops the lock if this holder's token is still current.
func (l *Lock) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result()
	if err != nil {
		return fmt.Errorf("reloadlock: release %s: %w", l.key, err)
	}
	return nil
}

// Extend pushes the lock's expiry out by ttl from now, if still held by
// this holder.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	_, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("reloadlock: extend %s: %w", l.key, err)
	}
	return nil
}
