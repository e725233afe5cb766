package enrichment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectordotdev/vector-sub015/internal/event"
)

func withClock(t *testing.T, start time.Time) *time.Time {
	t.Helper()
	cur := start
	orig := now
	now = func() time.Time { return cur }
	t.Cleanup(func() { now = orig })
	return &cur
}

func keyEquals(key string) []Condition {
	return []Condition{{Field: "key", Kind: Equals, Value: event.String(key)}}
}

func TestMemoryFindsRow(t *testing.T) {
	withClock(t, time.Unix(1_700_000_000, 0))
	m := NewMemory(DefaultMemoryConfig())

	m.HandleValue(map[string]event.Value{"alice": event.String("engineer")})

	row, err := m.FindTableRow(keyEquals("alice"))
	require.NoError(t, err)
	val, ok := row.Get("value")
	require.True(t, ok)
	assert.Equal(t, "engineer", val.String())

	ttlField, ok := row.Get("ttl")
	require.True(t, ok)
	assert.Equal(t, "600", ttlField.String())
}

func TestMemoryCalculatesRemainingTTL(t *testing.T) {
	clock := withClock(t, time.Unix(1_700_000_000, 0))
	m := NewMemory(MemoryConfig{TTL: 100 * time.Second, ScanInterval: 1000 * time.Second, WriteRefreshInterval: 0})
	m.HandleValue(map[string]event.Value{"k": event.String("v")})

	*clock = clock.Add(10 * time.Second)
	// WriteRefreshInterval=0 means every HandleValue call refreshes readers.
	m.HandleValue(nil)

	row, err := m.FindTableRow(keyEquals("k"))
	require.NoError(t, err)
	ttlField, _ := row.Get("ttl")
	assert.Equal(t, "90", ttlField.String())
}

func TestMemoryRemovesExpiredOnScanInterval(t *testing.T) {
	clock := withClock(t, time.Unix(1_700_000_000, 0))
	m := NewMemory(MemoryConfig{TTL: 5 * time.Second, ScanInterval: 0, WriteRefreshInterval: 0})
	m.HandleValue(map[string]event.Value{"k": event.String("v")})

	*clock = clock.Add(10 * time.Second)
	m.HandleValue(nil) // scan_interval=0 forces a sweep even on an empty batch

	_, err := m.FindTableRow(keyEquals("k"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Key not found")
}

func TestMemoryHidesWritesBeforeRefreshInterval(t *testing.T) {
	withClock(t, time.Unix(1_700_000_000, 0))
	m := NewMemory(MemoryConfig{TTL: 600 * time.Second, ScanInterval: 600 * time.Second, WriteRefreshInterval: 10 * time.Second})
	m.HandleValue(map[string]event.Value{"k": event.String("v")})

	_, err := m.FindTableRow(keyEquals("k"))
	require.Error(t, err)
}

func TestMemoryUpdatesTTLOnReplacement(t *testing.T) {
	clock := withClock(t, time.Unix(1_700_000_000, 0))
	m := NewMemory(MemoryConfig{TTL: 100 * time.Second, ScanInterval: 0, WriteRefreshInterval: 0})
	m.HandleValue(map[string]event.Value{"k": event.String("v1")})

	*clock = clock.Add(50 * time.Second)
	m.HandleValue(map[string]event.Value{"k": event.String("v2")})

	row, err := m.FindTableRow(keyEquals("k"))
	require.NoError(t, err)
	ttlField, _ := row.Get("ttl")
	assert.Equal(t, "100", ttlField.String())
}

func TestMemoryMissingKey(t *testing.T) {
	withClock(t, time.Unix(1_700_000_000, 0))
	m := NewMemory(DefaultMemoryConfig())
	_, err := m.FindTableRow(keyEquals("nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Key not found")
}

func TestMemoryAddIndexValidatesFieldCount(t *testing.T) {
	m := NewMemory(DefaultMemoryConfig())
	_, err := m.AddIndex(CaseSensitive, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Key field is required")

	_, err = m.AddIndex(CaseSensitive, []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only one field is allowed")

	h, err := m.AddIndex(CaseSensitive, []string{"key"})
	require.NoError(t, err)
	assert.Equal(t, IndexHandle(0), h)
}
