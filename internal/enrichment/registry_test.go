package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPhaseErrors(t *testing.T) {
	r := NewTableRegistry()

	search := r.AsReadonly()
	_, err := search.FindTableRow("people", keyEquals("alice"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish_load not called")

	_, err = r.AddIndex("people", CaseSensitive, []string{"key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish_load has been called")
}

func TestRegistryLoadFinishLoadRoundTrip(t *testing.T) {
	r := NewTableRegistry()
	m := NewMemory(DefaultMemoryConfig())
	r.Load(TableMap{"people": m})

	_, err := r.AddIndex("people", CaseSensitive, []string{"key"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"people"}, r.TableIDs())

	r.FinishLoad()

	search := r.AsReadonly()
	assert.False(t, search.NeedsReload("people"))
	assert.True(t, search.NeedsReload("missing"))

	_, err = search.FindTableRow("missing", keyEquals("alice"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table missing not loaded")
}

func TestRegistryLoadPreservesUnchangedTables(t *testing.T) {
	r := NewTableRegistry()
	a := NewMemory(DefaultMemoryConfig())
	r.Load(TableMap{"a": a})
	r.FinishLoad()

	// Reload with an empty map: "a" should still be served, byte-identical
	// (same pointer), since it wasn't mentioned in the new generation.
	r.Load(TableMap{})
	r.FinishLoad()

	search := r.AsReadonly()
	_, err := search.FindTableRow("a", keyEquals("nothing"))
	// "a" still being present (not erroring "not loaded") proves it carried
	// over; "Key not found" is the expected lookup miss.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Key not found")
}
