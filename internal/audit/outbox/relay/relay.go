// Package relay publishes pending audit outbox entries to Kafka,
// at least once. It runs outside the request path.
package relay

import (
	"context"
	"log/slog"
	"time"

	auditmetrics "consulthub/internal/audit/metrics"
	"consulthub/internal/audit/outbox"
	"consulthub/internal/platform/kafka/producer"
)

// Publisher sends one message to the event stream.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Relay polls the outbox and publishes entries in creation order.
type Relay struct {
	store           outbox.Store
	publisher       Publisher
	topic           string
	batchSize       int
	pollInterval    time.Duration
	retainProcessed time.Duration
	metrics         *auditmetrics.RelayMetrics
	logger          *slog.Logger
}

type Option func(*Relay)

func WithTopic(topic string) Option {
	return func(r *Relay) {
		r.topic = topic
	}
}

func WithBatchSize(size int) Option {
	return func(r *Relay) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(r *Relay) {
		if interval > 0 {
			r.pollInterval = interval
		}
	}
}

// WithRetention deletes processed entries older than d on each poll.
// Zero keeps them.
func WithRetention(d time.Duration) Option {
	return func(r *Relay) {
		r.retainProcessed = d
	}
}

func WithMetrics(m *auditmetrics.RelayMetrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func New(store outbox.Store, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		store:        store,
		publisher:    publisher,
		topic:        "consulthub.audit.records",
		batchSize:    100,
		pollInterval: 500 * time.Millisecond,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled, then drains what is left.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case <-ticker.C:
			r.Poll(ctx)
		}
	}
}

// Poll publishes one batch and returns the number of entries published.
func (r *Relay) Poll(ctx context.Context) int {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ObservePollDuration(time.Since(start).Seconds())
		}
	}()

	entries, err := r.store.FetchUnprocessed(ctx, r.batchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to fetch outbox entries", "error", err)
		if r.metrics != nil {
			r.metrics.IncPublishFailures()
		}
		return 0
	}
	if r.metrics != nil && len(entries) > 0 {
		r.metrics.ObserveBatchSize(len(entries))
	}

	published := r.publishBatch(ctx, entries)
	r.housekeep(ctx)
	return published
}

func (r *Relay) publishBatch(ctx context.Context, entries []*outbox.Entry) int {
	published := 0
	for _, entry := range entries {
		if err := r.publish(ctx, entry); err != nil {
			r.logger.ErrorContext(ctx, "failed to publish outbox entry",
				"id", entry.ID,
				"record_id", entry.RecordID,
				"error", err,
			)
			if r.metrics != nil {
				r.metrics.IncPublishFailures()
			}
			continue
		}
		// A publish that is not marked is sent again on the next poll; consumers dedupe on the key.
		if err := r.store.MarkProcessed(ctx, entry.ID, time.Now()); err != nil {
			r.logger.ErrorContext(ctx, "failed to mark entry as processed",
				"id", entry.ID,
				"error", err,
			)
			continue
		}
		published++
		if r.metrics != nil {
			r.metrics.IncPublished()
		}
	}
	return published
}

func (r *Relay) publish(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()
	err := r.publisher.Produce(ctx, &producer.Message{
		Topic: r.topic,
		Key:   []byte(entry.RecordID),
		Value: entry.Payload,
		Headers: map[string]string{
			"event_type": entry.EventType,
			"record_id":  entry.RecordID,
		},
	})
	if err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.ObservePublishDuration(time.Since(start).Seconds())
	}
	return nil
}

func (r *Relay) housekeep(ctx context.Context) {
	if r.retainProcessed > 0 {
		deleted, err := r.store.DeleteProcessedBefore(ctx, time.Now().Add(-r.retainProcessed))
		if err != nil {
			r.logger.WarnContext(ctx, "failed to purge processed outbox entries", "error", err)
		} else if r.metrics != nil {
			r.metrics.AddPurged(deleted)
		}
	}
	if r.metrics == nil {
		return
	}
	if count, err := r.store.CountPending(ctx); err == nil {
		r.metrics.SetPendingDepth(count)
	}
}

// drain publishes remaining entries during shutdown with a bounded timeout.
func (r *Relay) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r.logger.InfoContext(ctx, "draining outbox relay")
	for {
		entries, err := r.store.FetchUnprocessed(ctx, r.batchSize)
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to fetch entries during drain", "error", err)
			return
		}
		if len(entries) == 0 || r.publishBatch(ctx, entries) == 0 {
			return
		}
	}
}
