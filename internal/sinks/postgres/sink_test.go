package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectordotdev/vector-sub015/internal/ackfabric"
	"github.com/vectordotdev/vector-sub015/internal/event"
)

func TestNewAppliesDefaultDSN(t *testing.T) {
	s, err := New("alerts", nil)
	require.NoError(t, err)
	assert.Equal(t, "alerts", s.sinkName)
	assert.Contains(t, s.dsn, "postgres://")
}

func TestWriteRejectsNonLogEvents(t *testing.T) {
	s, err := New("alerts", nil)
	require.NoError(t, err)

	metric := event.FromMetric(event.MetricEvent{Name: "requests_total", Value: 1})
	status, err := s.Write(context.Background(), metric)
	require.Error(t, err)
	assert.Equal(t, ackfabric.Rejected, status)
}
