package session

import (
	"context"
	"sort"
	"sync"

	"consulthub/internal/impersonation/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

// InMemory stores impersonation sessions and enforces one open session per
// operator, like the partial unique index in PostgreSQL.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.ImpersonationSessionID]models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.ImpersonationSessionID]models.Session)}
}

func (s *InMemory) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	for _, existing := range s.sessions {
		if existing.OperatorID == session.OperatorID && existing.IsOpen() {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.sessions[session.ID] = *session
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.sessions, session.ID)
	})
	return nil
}

// End persists the end time of a session.
func (s *InMemory) End(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.sessions[session.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.sessions[session.ID] = *session
	tx.Compensate(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sessions[session.ID] = prev
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, sessionID id.ImpersonationSessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[sessionID]; ok {
		return &session, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindOpenByOperator(_ context.Context, operatorID id.ConsultancyUserID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.OperatorID == operatorID && session.IsOpen() {
			return &session, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns sessions newest first.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if filter.OpenOnly && !session.IsOpen() {
			continue
		}
		if !filter.OperatorID.IsNil() && session.OperatorID != filter.OperatorID {
			continue
		}
		out = append(out, &session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
