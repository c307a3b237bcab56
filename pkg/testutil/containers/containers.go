//go:build integration

// Package containers starts shared testcontainers fixtures for integration tests.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out containers that are started once per test binary.
type Manager struct {
	mu    sync.Mutex
	kafka *KafkaContainer
}

var (
	globalManager *Manager
	initOnce      sync.Once
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	initOnce.Do(func() {
		globalManager = &Manager{}
	})
	return globalManager
}

// GetKafka returns the shared Kafka container, starting it on first use.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.kafka == nil {
		m.kafka = NewKafkaContainer(t)
	}
	return m.kafka
}
