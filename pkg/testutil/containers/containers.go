//go:build integration

// Package containers starts the Postgres and Kafka fixtures used by the
// integration suites. Each container is started on first use and shared by
// every suite in the test binary.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out the shared containers.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	kafka    *KafkaContainer
}

var shared = &Manager{}

// GetManager returns the process-wide manager.
func GetManager() *Manager {
	return shared
}

// GetPostgres returns the migrated Postgres container.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres == nil {
		m.postgres = NewPostgresContainer(t)
	}
	return m.postgres
}

// GetKafka returns the audit broker with topic already created.
func (m *Manager) GetKafka(t *testing.T, topic string) *KafkaContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.kafka == nil {
		m.kafka = NewKafkaContainer(t)
	}
	if err := m.kafka.EnsureAuditTopic(t.Context(), topic); err != nil {
		t.Fatalf("failed to create audit topic %s: %v", topic, err)
	}
	return m.kafka
}
