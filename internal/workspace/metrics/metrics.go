package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Selections    prometheus.Counter
	StalePointers prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Selections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_workspace_selections_total",
			Help: "Total number of workspace selections",
		}),
		StalePointers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_workspace_stale_pointers_total",
			Help: "Workspace pointers cleared because re-verification failed",
		}),
	}
}

func (m *Metrics) IncSelection() {
	m.Selections.Inc()
}

func (m *Metrics) IncStalePointer() {
	m.StalePointers.Inc()
}
