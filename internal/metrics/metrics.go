package metrics

import (
	"event-service/internal/auth"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// AuthzDecisionsTotal counts authorizer outcomes by operation and decision.
	AuthzDecisionsTotal *prometheus.CounterVec
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_authz_decisions_total",
				Help: "Authorization decisions for event operations",
			},
			[]string{"operation", "decision"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
	)

	return m
}

// ObserveDecision implements auth.DecisionObserver.
func (m *Metrics) ObserveDecision(op auth.Operation, d auth.Decision) {
	m.AuthzDecisionsTotal.WithLabelValues(op.String(), d.String()).Inc()
}
