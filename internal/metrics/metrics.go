// Package metrics provides Prometheus metrics for lexdraft
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for lexdraft. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Render metrics
	RendersTotal   *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec

	// Snapshot metrics
	SnapshotsCreatedTotal *prometheus.CounterVec
	SnapshotsPrunedTotal  prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec

	// Research metrics
	ResearchQueriesTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates all metrics and registers them on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{gatherer: reg}

	m.RendersTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexdraft_renders_total",
			Help: "Total number of document renders",
		},
		[]string{"format", "status"},
	)

	m.RenderDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexdraft_render_duration_seconds",
			Help:    "Duration of document renders in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format"},
	)

	m.SnapshotsCreatedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexdraft_snapshots_created_total",
			Help: "Total number of version snapshots created",
		},
		[]string{"reason"},
	)

	m.SnapshotsPrunedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "lexdraft_snapshots_pruned_total",
			Help: "Total number of version snapshots removed by retention",
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexdraft_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	m.ResearchQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexdraft_research_queries_total",
			Help: "Total number of case-law research queries",
		},
		[]string{"kind"},
	)

	return m
}

// RecordRender records one render with its outcome.
func (m *Metrics) RecordRender(format string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RendersTotal.WithLabelValues(format, status).Inc()
	m.RenderDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// RecordSnapshot counts a created snapshot; reason is autosave, manual or restore.
func (m *Metrics) RecordSnapshot(reason string) {
	if m == nil {
		return
	}
	m.SnapshotsCreatedTotal.WithLabelValues(reason).Inc()
}

// RecordPruned counts snapshots deleted by retention.
func (m *Metrics) RecordPruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SnapshotsPrunedTotal.Add(float64(n))
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// RecordResearchQuery counts a research query by kind.
func (m *Metrics) RecordResearchQuery(kind string) {
	if m == nil {
		return
	}
	m.ResearchQueriesTotal.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
