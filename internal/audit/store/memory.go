// Package store persists audit records. Stores expose append and query only.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"consulthub/internal/audit/models"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

type InMemory struct {
	mu      sync.RWMutex
	records []models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(ctx context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == record.ID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.records = append(s.records, *record)
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.records {
			if s.records[i].ID == record.ID {
				s.records = append(s.records[:i], s.records[i+1:]...)
				return
			}
		}
	})
	return nil
}

// Query returns matching records newest first.
func (s *InMemory) Query(_ context.Context, filter models.Filter) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text := strings.ToLower(strings.TrimSpace(filter.Text))
	var matched []*models.Record
	for i := range s.records {
		r := s.records[i]
		if !filter.Matches(&r) || !matchesText(&r, text) {
			continue
		}
		matched = append(matched, &r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matchesText(r *models.Record, text string) bool {
	if text == "" {
		return true
	}
	for _, field := range []string{r.Actor.Name, r.Actor.Email, r.Entity, r.Description} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}
