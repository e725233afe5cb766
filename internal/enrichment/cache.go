package enrichment

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vectordotdev/vector-sub015/internal/event"
)

// cachedTable wraps a Table with a bounded LRU in front of single-key
// lookups, so a hot key served thousands of times a second skips the
// underlying backend's own bookkeeping (e.g. the TTL-table's lock and
// expiry check). The cache itself carries no TTL: it is purged wholesale
// only when the wrapped table reports NeedsReload. A table whose rows
// change or expire without reporting NeedsReload (Memory's NeedsReload is
// always false) can have a cached row served after it was replaced or
// expired, with the "ttl" field as it was when cached.
type cachedTable struct {
	Table
	cache *lru.Cache[string, event.Value]
}

// WithCache wraps t with an LRU cache of the given size holding single-row
// Equals-by-field lookups.
func WithCache(t Table, size int) Table {
	c, _ := lru.New[string, event.Value](size)
	return &cachedTable{Table: t, cache: c}
}

func (c *cachedTable) FindTableRow(conditions []Condition) (event.Value, error) {
	if c.Table.NeedsReload() {
		c.cache.Purge()
	}
	if key, ok := singleEqualsKey(conditions); ok {
		if v, ok := c.cache.Get(key); ok {
			return v, nil
		}
		v, err := c.Table.FindTableRow(conditions)
		if err != nil {
			return event.Value{}, err
		}
		c.cache.Add(key, v)
		return v, nil
	}
	return c.Table.FindTableRow(conditions)
}

func singleEqualsKey(conditions []Condition) (string, bool) {
	if len(conditions) != 1 || conditions[0].Kind != Equals {
		return "", false
	}
	return conditions[0].Field + "=" + conditions[0].Value.String(), true
}
