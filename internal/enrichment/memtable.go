package enrichment

import (
	"sync"
	"time"

	"github.com/vectordotdev/vector-sub015/internal/corerr"
	"github.com/vectordotdev/vector-sub015/internal/event"
)

// MemoryConfig holds the three independent timing knobs the upstream Memory
// table exposes: how long a row lives, how often expired rows are swept,
// and how often writes become visible to readers (separately from the
// sweep, so a write-heavy table isn't forced to publish on every write).
type MemoryConfig struct {
	TTL                  time.Duration
	ScanInterval         time.Duration
	WriteRefreshInterval time.Duration
}

// DefaultMemoryConfig matches the upstream defaults (ttl=600s,
// scan_interval=30s, write_refresh_interval=0 meaning "every write").
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		TTL:                  600 * time.Second,
		ScanInterval:         30 * time.Second,
		WriteRefreshInterval: 0,
	}
}

type memoryEntry struct {
	value      event.Value
	updateTime time.Time
}

func (e memoryEntry) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.updateTime) > ttl
}

func (e memoryEntry) intoRow(key string, now time.Time, ttl time.Duration) event.Value {
	remaining := ttl - now.Sub(e.updateTime)
	if remaining < 0 {
		remaining = 0
	}
	row := event.Object(nil)
	row.Set("key", event.String(key))
	row.Set("value", e.value)
	row.Set("ttl", event.Int(int64(remaining.Seconds())))
	return row
}

// now is a package-level hook so tests can control the clock; production
// code leaves it at time.Now.
var now = time.Now

// Memory is a TTL-evicting in-memory table, written to directly at runtime
// (handleValue) rather than loaded from an external source. It is a
// double-buffered read/write split: writes land in a write-side map and
// only become visible to FindTableRow/FindTableRows after a refresh, which
// fires on the ScanInterval/WriteRefreshInterval cadence described above.
type Memory struct {
	cfg MemoryConfig

	mu          sync.RWMutex
	write       map[string]memoryEntry
	read        map[string]memoryEntry // last-refreshed, safe for concurrent reads
	lastScan    time.Time
	lastRefresh time.Time
}

// NewMemory constructs an empty table with cfg's timing knobs.
func NewMemory(cfg MemoryConfig) *Memory {
	n := now()
	return &Memory{
		cfg:         cfg,
		write:       make(map[string]memoryEntry),
		read:        make(map[string]memoryEntry),
		lastScan:    n,
		lastRefresh: n,
	}
}

// HandleValue ingests one batch of key/value pairs, refreshing their update
// time, then runs the scan/refresh cadence: a TTL sweep evicts expired rows
// at ScanInterval; independently, accumulated writes are published to
// readers at WriteRefreshInterval (or immediately after a scan, since a
// scan already needed a refresh to take effect).
func (m *Memory) HandleValue(values map[string]event.Value) {
	n := now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.write[k] = memoryEntry{value: v, updateTime: n}
	}

	needsRefresh := false
	if n.Sub(m.lastScan) >= m.cfg.ScanInterval {
		for k, e := range m.write {
			if e.expired(n, m.cfg.TTL) {
				delete(m.write, k)
			}
		}
		needsRefresh = true
		m.lastScan = n
	} else if n.Sub(m.lastRefresh) >= m.cfg.WriteRefreshInterval {
		needsRefresh = true
	}

	if needsRefresh {
		snapshot := make(map[string]memoryEntry, len(m.write))
		for k, e := range m.write {
			snapshot[k] = e
		}
		m.read = snapshot
		m.lastRefresh = n
	}
}

func (m *Memory) FindTableRow(conditions []Condition) (event.Value, error) {
	rows, err := m.FindTableRows(conditions)
	if err != nil {
		return event.Value{}, err
	}
	switch len(rows) {
	case 0:
		return event.Value{}, corerr.New(corerr.KindEnrichmentLookup, "Key not found")
	case 1:
		return rows[0], nil
	default:
		return event.Value{}, corerr.New(corerr.KindEnrichmentLookup, "More than 1 row found")
	}
}

func (m *Memory) FindTableRows(conditions []Condition) ([]event.Value, error) {
	if len(conditions) == 0 {
		return nil, corerr.New(corerr.KindEnrichmentLookup, "Key condition must be specified")
	}
	if len(conditions) > 1 {
		return nil, corerr.New(corerr.KindEnrichmentLookup, "Only one condition is allowed")
	}
	c := conditions[0]
	if c.Kind != Equals {
		return nil, corerr.New(corerr.KindEnrichmentLookup, "Only equality condition is allowed")
	}

	key := c.Value.String()
	n := now()

	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.read[key]
	if !ok {
		return nil, nil
	}
	if e.expired(n, m.cfg.TTL) {
		return nil, nil
	}
	return []event.Value{e.intoRow(key, n, m.cfg.TTL)}, nil
}

// AddIndex only accepts a single key field, matching the upstream table
// (the in-memory store is keyed by a single field, not a composite index).
func (m *Memory) AddIndex(_ Case, fields []string) (IndexHandle, error) {
	switch len(fields) {
	case 0:
		return 0, corerr.New(corerr.KindEnrichmentPhase, "Key field is required")
	case 1:
		return IndexHandle(0), nil
	default:
		return 0, corerr.New(corerr.KindEnrichmentPhase, "Only one field is allowed")
	}
}

func (m *Memory) IndexFields() [][]string { return nil }

// NeedsReload is always false: data is written directly via HandleValue,
// there is no external source to go stale against.
func (m *Memory) NeedsReload() bool { return false }
