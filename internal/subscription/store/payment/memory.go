package payment

import (
	"context"
	"sort"
	"sync"

	"consulthub/internal/subscription/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

// InMemory stores payments for tests and local runs.
type InMemory struct {
	mu       sync.RWMutex
	payments map[id.PaymentID]models.Payment
}

func NewInMemory() *InMemory {
	return &InMemory{payments: make(map[id.PaymentID]models.Payment)}
}

func (s *InMemory) Create(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[p.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.payments[p.ID] = *p
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.payments, p.ID)
	})
	return nil
}

// ListByConsultancy returns the consultancy's payments, newest first.
func (s *InMemory) ListByConsultancy(_ context.Context, consultancyID id.ConsultancyID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.ConsultancyID == consultancyID {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
