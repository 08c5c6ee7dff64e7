// Package metrics exposes Prometheus counters for the freshness cache,
// the insights memo and the HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple caches never collide
// on the default one
type Metrics struct {
	registry *prometheus.Registry

	Recomputes            prometheus.Counter
	RecomputeFailures     prometheus.Counter
	DurableWriteFailures  prometheus.Counter
	ArtifactWriteFailures prometheus.Counter
	StaleServes           prometheus.Counter
	InsightsHits          prometheus.Counter
	InsightsMisses        prometheus.Counter
	SnapshotRows          prometheus.Gauge
	RequestDuration       *prometheus.HistogramVec
}

// New creates the metric set with Go runtime collectors attached
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Recomputes: f.NewCounter(prometheus.CounterOpts{
			Name: "dietdash_recomputes_total",
			Help: "Total number of successful dataset recomputations",
		}),
		RecomputeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "dietdash_recompute_failures_total",
			Help: "Total number of failed dataset recomputations",
		}),
		DurableWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "dietdash_durable_write_failures_total",
			Help: "Total number of failed durable store upserts",
		}),
		ArtifactWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "dietdash_artifact_write_failures_total",
			Help: "Total number of failed cleaned dataset writes",
		}),
		StaleServes: f.NewCounter(prometheus.CounterOpts{
			Name: "dietdash_stale_serves_total",
			Help: "Total number of requests answered from a stale snapshot",
		}),
		InsightsHits: f.NewCounter(prometheus.CounterOpts{
			Name: "dietdash_insights_cache_hits_total",
			Help: "Total number of insights memo hits",
		}),
		InsightsMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "dietdash_insights_cache_misses_total",
			Help: "Total number of insights memo misses",
		}),
		SnapshotRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "dietdash_snapshot_rows",
			Help: "Number of rows in the current cleaned snapshot",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dietdash_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
