// Package enrichment implements the two-phase enrichment table registry
// (loading/serving) and a concrete in-memory TTL-backed table, ported from
// the upstream lib/enrichment and src/enrichment_tables/memory
// implementations.
package enrichment

import (
	"github.com/vectordotdev/vector-sub015/internal/event"
)

// Case controls whether key comparisons are case sensitive.
type Case int

const (
	CaseSensitive Case = iota
	CaseInsensitive
)

// ConditionKind is the comparison a lookup Condition performs.
type ConditionKind int

const (
	Equals ConditionKind = iota
	// other comparison kinds (BetweenDates, FromDate, ...) are out of
	// scope for the in-memory table, which only supports Equals.
)

// Condition is one field = value constraint in a table lookup.
type Condition struct {
	Field string
	Kind  ConditionKind
	Value event.Value
}

// IndexHandle identifies an index previously registered with AddIndex.
type IndexHandle int

// Table is the behavior every enrichment table backend implements.
type Table interface {
	// FindTableRow returns the single row matching conditions, erroring if
	// zero or more than one row match.
	FindTableRow(conditions []Condition) (event.Value, error)
	// FindTableRows returns every row matching conditions.
	FindTableRows(conditions []Condition) ([]event.Value, error)
	// AddIndex registers fields as an index (a hint for backends that can
	// use one); returns a handle for later reference.
	AddIndex(c Case, fields []string) (IndexHandle, error)
	// IndexFields reports the fields of every index currently registered.
	IndexFields() [][]string
	// NeedsReload reports whether the table's backing data might be stale
	// and should be reloaded before use. Defaults to true when in doubt.
	NeedsReload() bool
}
