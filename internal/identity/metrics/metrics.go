package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ResolveDuration prometheus.Histogram
	Resolutions     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "consulthub_principal_resolve_duration_seconds",
			Help:    "Duration of principal resolution (every authenticated request)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consulthub_principal_resolutions_total",
			Help: "Principal resolutions by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveResolve(start time.Time) {
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

// IncResolution counts a resolution; outcome is a principal kind or a failure code.
func (m *Metrics) IncResolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()
}
