package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consulthub/internal/audit/outbox"
	outboxstore "consulthub/internal/audit/outbox/store"
	"consulthub/internal/platform/kafka/producer"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*producer.Message
	failKey  string
}

func (p *recordingPublisher) Produce(_ context.Context, msg *producer.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if string(msg.Key) == p.failKey {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func newRelay(store outbox.Store, pub Publisher) *Relay {
	return New(store, pub,
		WithTopic("audit"),
		WithBatchSize(10),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestPollPublishesInOrder(t *testing.T) {
	ctx := context.Background()
	store := outboxstore.NewInMemory()
	base := time.Now()
	require.NoError(t, store.Append(ctx, outbox.NewEntry("rec-2", outbox.EventRecorded, []byte(`{"n":2}`), base.Add(time.Second))))
	require.NoError(t, store.Append(ctx, outbox.NewEntry("rec-1", outbox.EventRecorded, []byte(`{"n":1}`), base)))

	pub := &recordingPublisher{}
	assert.Equal(t, 2, newRelay(store, pub).Poll(ctx))

	require.Len(t, pub.messages, 2)
	assert.Equal(t, "rec-1", string(pub.messages[0].Key))
	assert.Equal(t, "audit", pub.messages[0].Topic)
	assert.Equal(t, outbox.EventRecorded, pub.messages[0].Headers["event_type"])

	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestFailedPublishIsRetried(t *testing.T) {
	ctx := context.Background()
	store := outboxstore.NewInMemory()
	require.NoError(t, store.Append(ctx, outbox.NewEntry("rec-1", outbox.EventRecorded, []byte(`{}`), time.Now())))

	pub := &recordingPublisher{failKey: "rec-1"}
	r := newRelay(store, pub)
	assert.Zero(t, r.Poll(ctx))

	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	pub.failKey = ""
	assert.Equal(t, 1, r.Poll(ctx))
}

func TestRunDrainsOnShutdown(t *testing.T) {
	store := outboxstore.NewInMemory()
	require.NoError(t, store.Append(context.Background(), outbox.NewEntry("rec-1", outbox.EventRecorded, []byte(`{}`), time.Now())))

	pub := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, New(store, pub, WithPollInterval(time.Hour)).Run(ctx))

	assert.Len(t, pub.messages, 1)
}
