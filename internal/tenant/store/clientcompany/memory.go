package clientcompany

import (
	"context"
	"sort"
	"sync"

	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

// InMemory stores client companies in memory for tests and local runs.
type InMemory struct {
	mu        sync.RWMutex
	companies map[id.ClientCompanyID]models.ClientCompany
}

func NewInMemory() *InMemory {
	return &InMemory{companies: make(map[id.ClientCompanyID]models.ClientCompany)}
}

func (s *InMemory) Create(ctx context.Context, c *models.ClientCompany) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.companies[c.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.companies[c.ID] = *c
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.companies, c.ID)
	})
	return nil
}

// Update persists changes. The owning consultancy cannot change.
func (s *InMemory) Update(ctx context.Context, c *models.ClientCompany) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.companies[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if prev.ConsultancyID != c.ConsultancyID {
		return sentinel.ErrInvalidState
	}
	s.companies[c.ID] = *c
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.companies[c.ID] = prev
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.companies[companyID]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByConsultancy returns the companies of a consultancy ordered by legal name.
func (s *InMemory) ListByConsultancy(_ context.Context, consultancyID id.ConsultancyID, filter models.ClientCompanyFilter) ([]*models.ClientCompany, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ClientCompany
	for _, c := range s.companies {
		if c.ConsultancyID != consultancyID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LegalName < out[j].LegalName })
	return out, nil
}
