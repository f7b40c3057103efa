package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SessionsStarted      prometheus.Counter
	SessionsEnded        prometheus.Counter
	OpenSessions         prometheus.Gauge
	ImpersonatedRequests *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_impersonation_sessions_started_total",
			Help: "Total number of impersonation sessions started",
		}),
		SessionsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_impersonation_sessions_ended_total",
			Help: "Total number of impersonation sessions ended",
		}),
		OpenSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "consulthub_impersonation_sessions_open",
			Help: "Impersonation sessions opened minus ended since process start",
		}),
		ImpersonatedRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consulthub_impersonated_requests_total",
			Help: "Requests served on behalf of an impersonated principal, by target kind",
		}, []string{"target_type"}),
	}
}

func (m *Metrics) IncSessionStarted() {
	m.SessionsStarted.Inc()
	m.OpenSessions.Inc()
}

func (m *Metrics) IncSessionEnded() {
	m.SessionsEnded.Inc()
	m.OpenSessions.Dec()
}

func (m *Metrics) IncImpersonatedRequest(targetType string) {
	m.ImpersonatedRequests.WithLabelValues(targetType).Inc()
}
