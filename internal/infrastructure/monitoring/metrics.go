package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionOperations *prometheus.CounterVec
	SessionDuration   *prometheus.HistogramVec
	SessionsStored    prometheus.Gauge
	WindowsRestored   prometheus.Counter
	TabsRestored      prometheus.Counter

	// Browser metrics
	Navigations *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    prometheus.Counter
}

// NewMetrics creates a metrics collector on its own registry
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
				Name: "tabsession_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tabsession_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SessionOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabsession_session_operations_total",
				Help: "Session operations by verb and outcome",
			},
			[]string{"verb", "outcome"},
		),
		SessionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tabsession_session_operation_duration_seconds",
				Help:    "Session operation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"verb"},
		),
		SessionsStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabsession_sessions_stored",
				Help: "Number of session files in the session directory",
			},
		),
		WindowsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabsession_windows_restored_total",
				Help: "Total number of windows re-opened by session loads",
			},
		),
		TabsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabsession_tabs_restored_total",
				Help: "Total number of tabs re-opened by session loads",
			},
		),

		Navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabsession_navigations_total",
				Help: "Page loads by outcome",
			},
			[]string{"outcome"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabsession_ws_connections",
				Help: "Number of connected message stream clients",
			},
		),
		WSMessages: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabsession_ws_messages_total",
				Help: "Total number of messages pushed to stream clients",
			},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSessionOperation records a finished save/load/delete
func (m *Metrics) RecordSessionOperation(verb, outcome string, duration time.Duration) {
	m.SessionOperations.WithLabelValues(verb, outcome).Inc()
	m.SessionDuration.WithLabelValues(verb).Observe(duration.Seconds())
}

// SetSessionsStored sets the number of stored sessions
func (m *Metrics) SetSessionsStored(count int) {
	m.SessionsStored.Set(float64(count))
}

// AddRestored counts windows and tabs re-opened by a load
func (m *Metrics) AddRestored(windows, tabs int) {
	m.WindowsRestored.Add(float64(windows))
	m.TabsRestored.Add(float64(tabs))
}

// RecordNavigation records a page load outcome
func (m *Metrics) RecordNavigation(outcome string) {
	m.Navigations.WithLabelValues(outcome).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// IncWSMessages counts a pushed message
func (m *Metrics) IncWSMessages() {
	m.WSMessages.Inc()
}
