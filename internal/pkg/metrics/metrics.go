// Package metrics holds the Prometheus collectors of the workflow engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Transition outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	transitionsTotal   *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	outboxTotal        *prometheus.CounterVec
	purgedTotal        prometheus.Counter
	autoAdvancedTotal  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderflow_transitions_total",
				Help: "Transition requests by screen, outcome and error code",
			},
			[]string{"screen", "outcome", "code"},
		),
		transitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orderflow_transition_duration_seconds",
				Help:    "Time spent executing a transition request",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"screen"},
		),
		outboxTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderflow_outbox_deliveries_total",
				Help: "Outbox delivery attempts by topic and result",
			},
			[]string{"topic", "result"},
		),
		purgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orderflow_idempotency_records_purged_total",
				Help: "Idempotency records removed after the retention window",
			},
		),
		autoAdvancedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orderflow_auto_advanced_total",
				Help: "Orders moved by the auto-advance job",
			},
		),
	}

	reg.MustRegister(m.transitionsTotal, m.transitionDuration, m.outboxTotal, m.purgedTotal, m.autoAdvancedTotal)
	return m
}

func (m *Metrics) ObserveTransition(screen, outcome, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(screen, outcome, code).Inc()
	m.transitionDuration.WithLabelValues(screen).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveOutbox(topic, result string) {
	if m == nil {
		return
	}
	m.outboxTotal.WithLabelValues(topic, result).Inc()
}

func (m *Metrics) AddPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purgedTotal.Add(float64(n))
}

func (m *Metrics) IncAutoAdvanced() {
	if m == nil {
		return
	}
	m.autoAdvancedTotal.Inc()
}
