package subscription

import (
	"context"
	"sync"

	"consulthub/internal/subscription/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

// InMemory keeps at most one subscription per consultancy.
type InMemory struct {
	mu   sync.RWMutex
	subs map[id.ConsultancyID]models.Subscription
}

func NewInMemory() *InMemory {
	return &InMemory{subs: make(map[id.ConsultancyID]models.Subscription)}
}

func (s *InMemory) FindByConsultancy(_ context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.subs[consultancyID]; ok {
		return &sub, nil
	}
	return nil, sentinel.ErrNotFound
}

// Save inserts or replaces the consultancy's subscription.
func (s *InMemory) Save(ctx context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.subs[sub.ConsultancyID]
	s.subs[sub.ConsultancyID] = *sub
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.subs[sub.ConsultancyID] = prev
			return
		}
		delete(s.subs, sub.ConsultancyID)
	})
	return nil
}
