package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RelayMetrics holds Prometheus metrics for the outbox relay.
type RelayMetrics struct {
	PendingDepth    prometheus.Gauge
	PublishedTotal  prometheus.Counter
	PublishFailures prometheus.Counter
	PublishDuration prometheus.Histogram
	BatchSize       prometheus.Histogram
	PollDuration    prometheus.Histogram
	PurgedTotal     prometheus.Counter
}

func NewRelay() *RelayMetrics {
	return &RelayMetrics{
		PendingDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "consulthub_outbox_pending_total",
			Help: "Current number of pending (unprocessed) outbox entries",
		}),
		PublishedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_outbox_published_total",
			Help: "Total number of outbox entries published to Kafka",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_outbox_publish_failures_total",
			Help: "Total number of outbox publish failures",
		}),
		PublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "consulthub_outbox_publish_duration_seconds",
			Help:    "Time taken to publish an outbox entry to Kafka",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "consulthub_outbox_batch_size",
			Help:    "Number of entries processed per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "consulthub_outbox_poll_duration_seconds",
			Help:    "Time taken for each poll cycle",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		PurgedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_outbox_purged_total",
			Help: "Processed outbox entries deleted after the retention window",
		}),
	}
}

func (m *RelayMetrics) SetPendingDepth(count int64) {
	m.PendingDepth.Set(float64(count))
}

func (m *RelayMetrics) IncPublished() {
	m.PublishedTotal.Inc()
}

func (m *RelayMetrics) IncPublishFailures() {
	m.PublishFailures.Inc()
}

func (m *RelayMetrics) ObservePublishDuration(seconds float64) {
	m.PublishDuration.Observe(seconds)
}

func (m *RelayMetrics) ObserveBatchSize(size int) {
	m.BatchSize.Observe(float64(size))
}

func (m *RelayMetrics) ObservePollDuration(seconds float64) {
	m.PollDuration.Observe(seconds)
}

func (m *RelayMetrics) AddPurged(n int64) {
	m.PurgedTotal.Add(float64(n))
}
