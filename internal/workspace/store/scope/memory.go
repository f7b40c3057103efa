package scope

import (
	"context"
	"sync"
	"time"

	"consulthub/internal/workspace/models"
	"consulthub/pkg/platform/sentinel"
)

type entry struct {
	scope     models.Scope
	expiresAt time.Time
}

// InMemory keeps workspace pointers for tests and Redis-less development.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]entry), now: time.Now}
}

func (s *InMemory) Save(_ context.Context, scope *models.Scope, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[scope.Key] = entry{scope: *scope, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemory) Find(_ context.Context, key string) (*models.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	scope := e.scope
	return &scope, nil
}

// Delete removes a pointer. Deleting a missing key is not an error.
func (s *InMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
