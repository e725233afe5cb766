package telemetry

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDepthsUpdatesGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDepths(func() map[string]int {
		return map[string]int{"redis_out": 7}
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `vector_buffer_depth{component="redis_out"} 7`)
}

func TestReloadCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ReloadTotal.WithLabelValues("success").Inc()
	m.ReloadTotal.WithLabelValues("rollback").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `vector_config_reload_total{outcome="rollback"} 1`)
	assert.Contains(t, body, `vector_config_reload_total{outcome="success"} 1`)
}
