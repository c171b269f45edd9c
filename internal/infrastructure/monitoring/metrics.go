package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
// Each instance owns its registry so tests can build many servers.
type Metrics struct {
	registry *prometheus.Registry
	started  time.Time

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Preview metrics
	Mounts      *prometheus.CounterVec
	Unmounts    prometheus.Counter
	SlotsActive prometheus.Gauge

	// Relay metrics
	RelayAccepted *prometheus.CounterVec
	RelayDropped  *prometheus.CounterVec
	LogClears     *prometheus.CounterVec

	// Sandbox metrics
	SandboxRuns     *prometheus.CounterVec
	SandboxDuration prometheus.Histogram
	SandboxLost     prometheus.Counter

	// Store metrics
	StoreCalls    *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		started:  time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "penbox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "penbox_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		Mounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "penbox_preview_mounts_total",
				Help: "Total number of preview mounts",
			},
			[]string{"mode"},
		),
		Unmounts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "penbox_preview_unmounts_total",
				Help: "Total number of preview teardowns",
			},
		),
		SlotsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "penbox_preview_slots_active",
				Help: "Number of preview slots not yet torn down",
			},
		),

		RelayAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "penbox_relay_entries_total",
				Help: "Console entries appended, by level",
			},
			[]string{"level"},
		),
		RelayDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "penbox_relay_dropped_total",
				Help: "Relayed messages discarded, by reason",
			},
			[]string{"reason"},
		),
		LogClears: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "penbox_relay_log_clears_total",
				Help: "Console log clears, by cause",
			},
			[]string{"cause"},
		),

		SandboxRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "penbox_sandbox_runs_total",
				Help: "Headless script executions, by outcome",
			},
			[]string{"outcome"},
		),
		SandboxDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "penbox_sandbox_duration_seconds",
				Help:    "Headless script execution time",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		SandboxLost: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "penbox_sandbox_runtimes_lost_total",
				Help: "Pooled runtimes that could not be reset or recreated",
			},
		),

		StoreCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "penbox_store_calls_total",
				Help: "Pen store calls, by operation and status",
			},
			[]string{"op", "status"},
		),
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "penbox_store_duration_seconds",
				Help:    "Pen store call duration",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"op"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "penbox_ws_connections",
				Help: "Number of active editor WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "penbox_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMount records a preview mount in the given mode ("immediate" or "debounced")
func (m *Metrics) RecordMount(mode string) {
	m.Mounts.WithLabelValues(mode).Inc()
}

// RecordUnmount records a preview teardown
func (m *Metrics) RecordUnmount() {
	m.Unmounts.Inc()
}

// RecordRelayEntry records an appended console entry
func (m *Metrics) RecordRelayEntry(level string) {
	m.RelayAccepted.WithLabelValues(level).Inc()
}

// RecordRelayDrop records a discarded relay message
func (m *Metrics) RecordRelayDrop(reason string) {
	m.RelayDropped.WithLabelValues(reason).Inc()
}

// RecordLogClear records a console log clear
func (m *Metrics) RecordLogClear(cause string) {
	m.LogClears.WithLabelValues(cause).Inc()
}

// RecordSandboxRun records one headless execution
func (m *Metrics) RecordSandboxRun(outcome string, duration time.Duration) {
	m.SandboxRuns.WithLabelValues(outcome).Inc()
	m.SandboxDuration.Observe(duration.Seconds())
}

// RecordSandboxLost records a pooled runtime dropped after a failed reset
func (m *Metrics) RecordSandboxLost() {
	m.SandboxLost.Inc()
}

// RecordStoreCall records a pen store call
func (m *Metrics) RecordStoreCall(op, status string, duration time.Duration) {
	m.StoreCalls.WithLabelValues(op, status).Inc()
	m.StoreDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// SlotOpened tracks a new preview slot
func (m *Metrics) SlotOpened() {
	m.SlotsActive.Inc()
}

// SlotClosed tracks a torn down preview slot
func (m *Metrics) SlotClosed() {
	m.SlotsActive.Dec()
}
