package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	TokensTotal *prometheus.CounterVec
	CostTotal   *prometheus.CounterVec

	// Catalog metrics
	CatalogRefreshesTotal *prometheus.CounterVec

	// Telemetry store metrics
	TelemetryAppendErrorsTotal prometheus.Counter
	TelemetryRowsSkippedTotal  prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		// Run metrics
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_runs_total",
				Help: "Total number of agent runs by outcome",
			},
			[]string{"agent_name", "status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_run_duration_seconds",
				Help:    "Duration of agent runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent_name"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_tokens_total",
				Help: "Total tokens consumed by agent runs",
			},
			[]string{"agent_name", "kind"},
		),
		CostTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_cost_usd_total",
				Help: "Total estimated cost of agent runs in USD",
			},
			[]string{"agent_name"},
		),

		// Catalog metrics
		CatalogRefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_refreshes_total",
				Help: "Total number of model catalog refreshes by source",
			},
			[]string{"source"},
		),

		// Telemetry store metrics
		TelemetryAppendErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_append_errors_total",
				Help: "Total number of failed telemetry appends",
			},
		),
		TelemetryRowsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_rows_skipped_total",
				Help: "Total number of malformed telemetry rows skipped on load",
			},
		),
	}

	// Register all metrics
	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.RunsTotal)
	m.registry.MustRegister(m.RunDuration)
	m.registry.MustRegister(m.TokensTotal)
	m.registry.MustRegister(m.CostTotal)

	m.registry.MustRegister(m.CatalogRefreshesTotal)

	m.registry.MustRegister(m.TelemetryAppendErrorsTotal)
	m.registry.MustRegister(m.TelemetryRowsSkippedTotal)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
