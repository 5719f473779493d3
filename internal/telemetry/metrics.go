package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	cycles          *prometheus.CounterVec
	cycleDuration   *prometheus.HistogramVec
	checks          *prometheus.CounterVec
	timerExpiries   prometheus.Counter
	inFlight        prometheus.Gauge
	notifications   prometheus.Counter
	persistFailures prometheus.Counter
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interlude_cycles_total",
			Help: "Playback cycles by kind and result",
		}, []string{"kind", "result"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interlude_cycle_duration_seconds",
			Help:    "Time from dispatch to completion of a playback cycle",
			Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90},
		}, []string{"kind"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interlude_monitor_checks_total",
			Help: "Schedule monitor checks by outcome",
		}, []string{"action"}),
		timerExpiries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interlude_timer_expiries_total",
			Help: "Manual timer expiries",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "interlude_cycle_in_flight",
			Help: "1 while a playback cycle is running",
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interlude_notifications_total",
			Help: "User notifications emitted",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interlude_persist_failures_total",
			Help: "Failed writes of the settings record",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interlude_api_request_duration_seconds",
			Help:    "Duration of control API requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interlude_api_requests_total",
			Help: "Total number of control API requests",
		}, []string{"method", "path", "status"}),
	}

	registry.MustRegister(
		m.cycles, m.cycleDuration, m.checks, m.timerExpiries, m.inFlight,
		m.notifications, m.persistFailures, m.requestDuration, m.requestTotal,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// CycleStarted marks a cycle as dispatched.
func (m *Metrics) CycleStarted() {
	if m == nil {
		return
	}
	m.inFlight.Set(1)
}

// CycleFinished records the outcome of a cycle.
func (m *Metrics) CycleFinished(kind, result string, seconds float64) {
	if m == nil {
		return
	}
	m.inFlight.Set(0)
	m.cycles.WithLabelValues(kind, result).Inc()
	if result == "ok" {
		m.cycleDuration.WithLabelValues(kind).Observe(seconds)
	}
}

// CycleCancelled clears the in-flight gauge after a cancellation.
func (m *Metrics) CycleCancelled(kind string) {
	if m == nil {
		return
	}
	m.inFlight.Set(0)
	m.cycles.WithLabelValues(kind, "cancelled").Inc()
}

// Check records a monitor check outcome.
func (m *Metrics) Check(action string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(action).Inc()
}

// TimerExpired records a manual timer expiry.
func (m *Metrics) TimerExpired() {
	if m == nil {
		return
	}
	m.timerExpiries.Inc()
}

// Notified records a user notification.
func (m *Metrics) Notified() {
	if m == nil {
		return
	}
	m.notifications.Inc()
}

// PersistFailed records a failed state write.
func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
