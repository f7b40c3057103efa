// Package outbox holds audit records waiting to be relayed to the event
// stream. Entries are appended in the same transaction as the record.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventRecorded is the event type of every relayed audit record.
const EventRecorded = "audit.recorded"

// Entry is a pending relay message.
type Entry struct {
	ID          uuid.UUID
	RecordID    string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

func NewEntry(recordID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:        uuid.New(),
		RecordID:  recordID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: now,
	}
}

// Store persists outbox entries. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	// FetchUnprocessed returns up to limit pending entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)
	MarkProcessed(ctx context.Context, entryID uuid.UUID, processedAt time.Time) error
	CountPending(ctx context.Context) (int64, error)
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
