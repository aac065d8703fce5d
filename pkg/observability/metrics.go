package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Query bus metrics
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Lineage metrics
	Builds        *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	GraphNodes    prometheus.Histogram
	Exports       *prometheus.CounterVec
	ExportLatency prometheus.Histogram
}

// NewCollector creates a new metrics collector with the given namespace.
// Each collector owns its registry so tests can create as many as they need.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of dispatched queries",
			},
			[]string{"query", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		Builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lineage_builds_total",
				Help:      "Total number of lineage graph builds",
			},
			[]string{"role", "outcome"},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lineage_build_duration_seconds",
				Help:      "Lineage graph build duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"role"},
		),
		GraphNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lineage_graph_nodes",
				Help:      "Number of nodes in successfully built lineage graphs",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 75, 100},
			},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_exports_total",
				Help:      "Total number of graph exports by produced output kind",
			},
			[]string{"kind"},
		),
		ExportLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_export_duration_seconds",
				Help:      "Graph export duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Queries,
		c.QueryDuration,
		c.Builds,
		c.BuildDuration,
		c.GraphNodes,
		c.Exports,
		c.ExportLatency,
	)

	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a served HTTP request
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordQuery records a dispatched query
func (c *Collector) RecordQuery(query, status string, duration time.Duration) {
	c.Queries.WithLabelValues(query, status).Inc()
	c.QueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordBuild records one lineage build
func (c *Collector) RecordBuild(_ context.Context, role string, nodes int, duration time.Duration, outcome string) {
	c.Builds.WithLabelValues(role, outcome).Inc()
	c.BuildDuration.WithLabelValues(role).Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		c.GraphNodes.Observe(float64(nodes))
	}
}

// RecordExport records one graph export
func (c *Collector) RecordExport(_ context.Context, kind string, duration time.Duration) {
	c.Exports.WithLabelValues(kind).Inc()
	c.ExportLatency.Observe(duration.Seconds())
}

// Build outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeNotFound     = "not_found"
	OutcomeTooManyNodes = "too_many_nodes"
	OutcomeError        = "error"
)
