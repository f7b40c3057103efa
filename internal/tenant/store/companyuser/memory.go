package companyuser

import (
	"context"
	"sort"
	"sync"

	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

// InMemory stores company users in memory. Email is unique per client
// company and a linked subject is unique across all company users.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.CompanyUserID]models.CompanyUser
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.CompanyUserID]models.CompanyUser)}
}

func (s *InMemory) Create(ctx context.Context, u *models.CompanyUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if s.conflicts(u) {
		return sentinel.ErrAlreadyUsed
	}
	s.users[u.ID] = *u
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.users, u.ID)
	})
	return nil
}

func (s *InMemory) Update(ctx context.Context, u *models.CompanyUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.users[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if prev.ClientCompanyID != u.ClientCompanyID {
		return sentinel.ErrInvalidState
	}
	if s.conflicts(u) {
		return sentinel.ErrAlreadyUsed
	}
	s.users[u.ID] = *u
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.users[u.ID] = prev
	})
	return nil
}

// conflicts reports whether another user already holds u's email within the
// same company or u's subject anywhere. Caller must hold the lock.
func (s *InMemory) conflicts(u *models.CompanyUser) bool {
	for _, other := range s.users {
		if other.ID == u.ID {
			continue
		}
		if other.ClientCompanyID == u.ClientCompanyID && other.Email == u.Email {
			return true
		}
		if !u.SubjectID.IsNil() && other.SubjectID == u.SubjectID {
			return true
		}
	}
	return false
}

func (s *InMemory) FindByID(_ context.Context, userID id.CompanyUserID) (*models.CompanyUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindBySubject(_ context.Context, subject id.SubjectID) (*models.CompanyUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if subject.IsNil() {
		return nil, sentinel.ErrNotFound
	}
	for _, u := range s.users {
		if u.SubjectID == subject {
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListByClientCompany returns the users of a company ordered by name.
func (s *InMemory) ListByClientCompany(_ context.Context, companyID id.ClientCompanyID) ([]*models.CompanyUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CompanyUser
	for _, u := range s.users {
		if u.ClientCompanyID == companyID {
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
