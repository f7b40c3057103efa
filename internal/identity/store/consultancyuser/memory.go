package consultancyuser

import (
	"context"
	"sync"

	"consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

// InMemory stores consultancy users in memory for tests and local runs.
type InMemory struct {
	mu        sync.RWMutex
	users     map[id.ConsultancyUserID]models.ConsultancyUser
	bySubject map[id.SubjectID]id.ConsultancyUserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:     make(map[id.ConsultancyUserID]models.ConsultancyUser),
		bySubject: make(map[id.SubjectID]id.ConsultancyUserID),
	}
}

// Create persists a new user. Subjects are unique.
func (s *InMemory) Create(ctx context.Context, user *models.ConsultancyUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.bySubject[user.SubjectID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.users[user.ID] = *user
	s.bySubject[user.SubjectID] = user.ID
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.users, user.ID)
		delete(s.bySubject, user.SubjectID)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.ConsultancyUserID) (*models.ConsultancyUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindBySubject(_ context.Context, subject id.SubjectID) (*models.ConsultancyUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.bySubject[subject]; ok {
		u := s.users[userID]
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByConsultancy returns the consultants of a consultancy ordered by name.
func (s *InMemory) ListByConsultancy(_ context.Context, consultancyID id.ConsultancyID) ([]*models.ConsultancyUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ConsultancyUser
	for _, u := range s.users {
		if u.ConsultancyID == consultancyID {
			out = append(out, &u)
		}
	}
	sortByName(out)
	return out, nil
}
