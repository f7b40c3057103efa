package consultancy

import (
	"context"
	"sort"
	"sync"

	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

// InMemory stores consultancies in memory for tests and local runs.
type InMemory struct {
	mu            sync.RWMutex
	consultancies map[id.ConsultancyID]models.Consultancy
}

func NewInMemory() *InMemory {
	return &InMemory{consultancies: make(map[id.ConsultancyID]models.Consultancy)}
}

func (s *InMemory) Create(ctx context.Context, c *models.Consultancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.consultancies[c.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.consultancies[c.ID] = *c
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.consultancies, c.ID)
	})
	return nil
}

func (s *InMemory) Update(ctx context.Context, c *models.Consultancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.consultancies[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.consultancies[c.ID] = *c
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.consultancies[c.ID] = prev
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, consultancyID id.ConsultancyID) (*models.Consultancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.consultancies[consultancyID]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

// List returns every consultancy ordered by name.
func (s *InMemory) List(_ context.Context) ([]*models.Consultancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Consultancy, 0, len(s.consultancies))
	for _, c := range s.consultancies {
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
