package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectordotdev/vector-sub015/internal/event"
)

func TestRouteMatchesConfiguredRule(t *testing.T) {
	tr, err := New("route", map[string]any{
		"routes": []any{
			map[string]any{"output": "errors", "field": "level", "equals": "error"},
		},
	})
	require.NoError(t, err)

	e := event.NewLogEvent()
	e.Fields.Set("level", event.String("error"))
	out := tr.Process(event.FromLog(e))

	require.Len(t, out["errors"], 1)
	_, hasUnmatched := out["_unmatched"]
	assert.False(t, hasUnmatched)
}

func TestRouteFallsThroughToUnmatched(t *testing.T) {
	tr, err := New("route", map[string]any{
		"routes": []any{
			map[string]any{"output": "errors", "field": "level", "equals": "error"},
		},
	})
	require.NoError(t, err)

	e := event.NewLogEvent()
	e.Fields.Set("level", event.String("info"))
	out := tr.Process(event.FromLog(e))

	require.Len(t, out["_unmatched"], 1)
}
