package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"consulthub/internal/audit/outbox"
	"consulthub/pkg/platform/tx"
)

// InMemory keeps outbox entries in memory.
type InMemory struct {
	mu      sync.Mutex
	entries map[uuid.UUID]outbox.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[uuid.UUID]outbox.Entry)}
}

func (s *InMemory) Append(ctx context.Context, entry *outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.entries, entry.ID)
	})
	return nil
}

func (s *InMemory) FetchUnprocessed(_ context.Context, limit int) ([]*outbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*outbox.Entry
	for _, e := range s.entries {
		if e.IsPending() {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) MarkProcessed(_ context.Context, entryID uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || !e.IsPending() {
		return fmt.Errorf("outbox entry not found or already processed: %s", entryID)
	}
	e.ProcessedAt = &processedAt
	s.entries[entryID] = e
	return nil
}

func (s *InMemory) CountPending(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.entries {
		if e.IsPending() {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, e := range s.entries {
		if e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}
