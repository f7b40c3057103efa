//go:build integration

package containers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// eventTypeHeader is the header the outbox relay stamps on every audit event.
const eventTypeHeader = "event_type"

// KafkaContainer is a Redpanda broker that receives relayed audit events.
type KafkaContainer struct {
	Container testcontainers.Container
	Brokers   string
}

// AuditEvent is an audit record as it landed on the topic.
type AuditEvent struct {
	RecordID  string
	EventType string
	Payload   []byte
	Offset    int64
}

// NewKafkaContainer starts a Kafka-compatible Redpanda broker. Like the
// Postgres container it outlives the test that started it and is reaped
// when the test process exits.
func NewKafkaContainer(t *testing.T) *KafkaContainer {
	t.Helper()

	ctx := context.Background()
	container, err := kafka.Run(ctx,
		"redpandadata/redpanda:latest",
		kafka.WithClusterID("consulthub-audit"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil || len(brokers) == 0 {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get kafka brokers: %v", err)
	}

	return &KafkaContainer{Container: container, Brokers: brokers[0]}
}

// EnsureAuditTopic creates a single-partition audit topic, so relayed events
// keep their outbox order. An existing topic is left as is.
func (k *KafkaContainer) EnsureAuditTopic(ctx context.Context, topic string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(k.Brokers))
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := kadm.NewClient(client).CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return err
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// ReadAuditEvents reads the topic from the start until want events arrived or
// timeout passed, and returns what it saw in topic order.
func (k *KafkaContainer) ReadAuditEvents(ctx context.Context, topic string, want int, timeout time.Duration) ([]AuditEvent, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(k.Brokers),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var events []AuditEvent
	for len(events) < want {
		fetches := client.PollFetches(ctx)
		if ctx.Err() != nil || fetches.IsClientClosed() {
			break
		}
		fetches.EachRecord(func(r *kgo.Record) {
			events = append(events, toAuditEvent(r))
		})
	}
	return events, nil
}

func toAuditEvent(r *kgo.Record) AuditEvent {
	e := AuditEvent{RecordID: string(r.Key), Payload: r.Value, Offset: r.Offset}
	for _, h := range r.Headers {
		if h.Key == eventTypeHeader {
			e.EventType = string(h.Value)
		}
	}
	return e
}
