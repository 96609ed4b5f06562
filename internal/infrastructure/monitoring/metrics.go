package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry so
// tests and multiple servers in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Builder metrics
	BuildsTotal    *prometheus.CounterVec
	BuildDuration  *prometheus.HistogramVec
	BuildsInFlight prometheus.Gauge
	RunsRejected   prometheus.Counter
	BreakerState   *prometheus.GaugeVec

	// Preview metrics
	Remounts prometheus.Counter

	// Workspace metrics
	WorkspacesActive prometheus.Gauge
	WorkspacesReaped prometheus.Counter
	IdentityFallback prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
}

// NewMetrics creates a new metrics collector with a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rnpad_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rnpad_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),

		BuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rnpad_builds_total",
				Help: "Builder submissions by outcome",
			},
			[]string{"outcome"},
		),
		BuildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rnpad_build_duration_seconds",
				Help:    "Builder round-trip duration in seconds",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120},
			},
			[]string{"outcome"},
		),
		BuildsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rnpad_builds_in_flight",
				Help: "Builder submissions awaiting a response",
			},
		),
		RunsRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rnpad_runs_rejected_total",
				Help: "Run requests ignored because a build was already running",
			},
		),

		Remounts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rnpad_preview_remounts_total",
				Help: "Preview surface remounts caused by a new generation",
			},
		),

		WorkspacesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rnpad_workspaces_active",
				Help: "Number of live per-browser workspaces",
			},
		),
		WorkspacesReaped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rnpad_workspaces_reaped_total",
				Help: "Workspaces discarded after the idle TTL",
			},
		),
		IdentityFallback: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rnpad_identity_fallback_total",
				Help: "Identity store failures that degraded to an ephemeral token",
			},
		),

		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rnpad_builder_breaker_state",
				Help: "Builder circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rnpad_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rnpad_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}
}

// Registry exposes the underlying registry (used by tests to gather)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordBuild records a finished builder round trip. outcome is "success" or
// the failure kind.
func (m *Metrics) RecordBuild(outcome string, duration time.Duration) {
	m.BuildsTotal.WithLabelValues(outcome).Inc()
	m.BuildDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}
