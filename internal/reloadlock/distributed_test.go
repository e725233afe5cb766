package reloadlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewManager(client, "vector:reload:")
}

func TestAcquireExcludesSecondHolder(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	lock, ok, err := m.Acquire(ctx, "pipeline-a", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok2, err := m.Acquire(ctx, "pipeline-a", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok2)

	require.NoError(t, lock.Release(ctx))

	_, ok3, err := m.Acquire(ctx, "pipeline-a", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok3)
}

func TestReleaseOnlyByHolder(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	lock, ok, err := m.Acquire(ctx, "pipeline-b", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	stolen := &Lock{client: lock.client, key: lock.key, token: "not-the-real-token"}
	require.NoError(t, stolen.Release(ctx))

	_, ok2, err := m.Acquire(ctx, "pipeline-b", time.Second)
	require.NoError(t, err)
	assert.False(t, ok2, "a mismatched token must not release someone else's lock")
}
