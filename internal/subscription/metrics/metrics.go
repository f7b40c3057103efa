package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GateDecisions *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		GateDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consulthub_subscription_gate_decisions_total",
			Help: "Subscription gate checks by subscription status and outcome",
		}, []string{"status", "outcome"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consulthub_subscription_transitions_total",
			Help: "Subscription state transitions by resulting status",
		}, []string{"to"}),
	}
}

func (m *Metrics) IncGateDecision(status string, allowed bool) {
	outcome := "redirected"
	if allowed {
		outcome = "allowed"
	}
	m.GateDecisions.WithLabelValues(status, outcome).Inc()
}

func (m *Metrics) IncTransition(to string) {
	m.Transitions.WithLabelValues(to).Inc()
}
