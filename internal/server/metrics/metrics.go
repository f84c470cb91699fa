// Package metrics exposes Prometheus counters for authentication events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "giftdesk"

// Metrics implements services.Recorder on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	verifications       *prometheus.CounterVec
	sessionsIssued      prometheus.Counter
	sessionsInvalidated prometheus.Counter
	sessionsPurged      prometheus.Counter
	requests            *prometheus.CounterVec
	rateLimited         prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "verifications_total",
			Help:      "Factor checks by factor and outcome.",
		}, []string{"factor", "outcome"}),
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "issued_total",
			Help:      "Sessions issued.",
		}),
		sessionsInvalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "invalidated_total",
			Help:      "Sessions removed by logout.",
		}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "purged_total",
			Help:      "Expired sessions deleted by the purge loop.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests refused by the rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.verifications,
		m.sessionsIssued,
		m.sessionsInvalidated,
		m.sessionsPurged,
		m.requests,
		m.rateLimited,
	)
	return m
}

func (m *Metrics) Verification(factor, outcome string) {
	m.verifications.WithLabelValues(factor, outcome).Inc()
}

func (m *Metrics) SessionIssued()      { m.sessionsIssued.Inc() }
func (m *Metrics) SessionInvalidated() { m.sessionsInvalidated.Inc() }

func (m *Metrics) SessionsPurged(n int64) {
	if n > 0 {
		m.sessionsPurged.Add(float64(n))
	}
}

func (m *Metrics) Request(route, code string) {
	m.requests.WithLabelValues(route, code).Inc()
}

func (m *Metrics) RateLimited() { m.rateLimited.Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
