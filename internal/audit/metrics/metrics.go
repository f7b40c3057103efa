package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds audit writer and query metrics.
type Metrics struct {
	RecordsWritten    *prometheus.CounterVec
	NoOpSuppressed    prometheus.Counter
	WriteFailures     prometheus.Counter
	ScopeRejections   prometheus.Counter
	ExportsGenerated  prometheus.Counter
	ExportRowsWritten prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		RecordsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consulthub_audit_records_written_total",
			Help: "Audit records written, by action",
		}, []string{"action"}),
		NoOpSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_audit_noop_updates_suppressed_total",
			Help: "Updates that changed no field and produced no audit record",
		}),
		WriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_audit_write_failures_total",
			Help: "Audit writes that failed and aborted their mutation",
		}),
		ScopeRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_audit_scope_rejections_total",
			Help: "Audit entries rejected for a missing or foreign tenant scope",
		}),
		ExportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_audit_exports_total",
			Help: "Audit export workbooks generated",
		}),
		ExportRowsWritten: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "consulthub_audit_export_rows",
			Help:    "Rows per audit export workbook",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000},
		}),
	}
}

func (m *Metrics) IncWritten(action string) {
	m.RecordsWritten.WithLabelValues(action).Inc()
}

func (m *Metrics) IncNoOpSuppressed() {
	m.NoOpSuppressed.Inc()
}

func (m *Metrics) IncWriteFailures() {
	m.WriteFailures.Inc()
}

func (m *Metrics) IncScopeRejections() {
	m.ScopeRejections.Inc()
}

func (m *Metrics) ObserveExport(rows int) {
	m.ExportsGenerated.Inc()
	m.ExportRowsWritten.Observe(float64(rows))
}
