package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kidra"

// Forward outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeBackendError = "backend_error"
	OutcomeUnavailable  = "unavailable"
)

// Metrics holds the gateway collectors and the registry they are exposed from.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	forwards        *prometheus.CounterVec   // service, outcome
	forwardDuration *prometheus.HistogramVec // service
	bootDuration    *prometheus.GaugeVec     // service
	backendUp       *prometheus.GaugeVec     // service
	schemaBuilds    *prometheus.CounterVec   // outcome
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		forwards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forward",
			Name:      "requests_total",
			Help:      "Total number of requests forwarded to backends",
		}, []string{"service", "outcome"}),

		forwardDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forward",
			Name:      "duration_seconds",
			Help:      "Backend round-trip duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"service"}),

		bootDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "boot_duration_seconds",
			Help:      "Time from spawn until the backend answered its ping",
		}, []string{"service"}),

		backendUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "up",
			Help:      "Backend ping status (0=down, 1=up)",
		}, []string{"service"}),

		schemaBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "builds_total",
			Help:      "Total number of merged schema computations",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.forwards,
		m.forwardDuration,
		m.bootDuration,
		m.backendUp,
		m.schemaBuilds,
	)

	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveForward records one forwarded request.
func (m *Metrics) ObserveForward(service, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.forwards.WithLabelValues(service, outcome).Inc()
	m.forwardDuration.WithLabelValues(service).Observe(d.Seconds())
}

// ObserveBoot records how long a spawned backend took to become ready.
func (m *Metrics) ObserveBoot(service string, d time.Duration) {
	if m == nil {
		return
	}
	m.bootDuration.WithLabelValues(service).Set(d.Seconds())
}

// SetBackendUp records the last ping result of a backend.
func (m *Metrics) SetBackendUp(service string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.backendUp.WithLabelValues(service).Set(v)
}

// ObserveSchemaBuild records a merged schema computation.
func (m *Metrics) ObserveSchemaBuild(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.schemaBuilds.WithLabelValues(outcome).Inc()
}
