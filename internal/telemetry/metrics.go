// Package telemetry exposes the runtime's internal counters on a
// Prometheus /metrics endpoint, the ambient observability surface every
// running component contributes to regardless of which sources, sinks
// and transforms are configured.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the gauges and counters every component updates as it
// runs.
type Metrics struct {
	BufferDepth     *prometheus.GaugeVec
	EventsDropped   *prometheus.CounterVec
	EventsProcessed *prometheus.CounterVec
	ReloadTotal     *prometheus.CounterVec
	ReloadDuration  prometheus.Histogram
}

// New registers and returns a Metrics bundle against reg. Pass
// prometheus.NewRegistry() for an isolated test registry, or
// prometheus.DefaultRegisterer-backed reg in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BufferDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vector",
			Name:      "buffer_depth",
			Help:      "Number of records currently queued in a component's buffer.",
		}, []string{"component"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vector",
			Name:      "events_dropped_total",
			Help:      "Total events dropped by a component, by reason.",
		}, []string{"component", "reason"}),
		EventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vector",
			Name:      "events_processed_total",
			Help:      "Total events processed by a component.",
		}, []string{"component"}),
		ReloadTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vector",
			Name:      "config_reload_total",
			Help:      "Total config reload attempts, by outcome.",
		}, []string{"outcome"}),
		ReloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vector",
			Name:      "config_reload_duration_seconds",
			Help:      "Time taken to apply a config reload end to end.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// DepthProvider supplies the current buffer depth of every named
// component, polled once per ObserveDepths call.
type DepthProvider func() map[string]int

// ObserveDepths sets the BufferDepth gauge for every component returned by
// provider. Call it on a ticker from cmd/vector; kept separate from a
// prometheus.Collector implementation because Runtime's internals aren't
// safe to read from Prometheus's own collection goroutine without the
// caller's lock discipline.
func (m *Metrics) ObserveDepths(provider DepthProvider) {
	for name, depth := range provider() {
		m.BufferDepth.WithLabelValues(name).Set(float64(depth))
	}
}

// Handler returns the HTTP handler to mount at /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
