package store

import (
	"context"
	"sync"
)

// Memory is a process-local TokenStore. It is safe for concurrent use
// and keeps nothing across restarts.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory describes the newmemory operation and its observable
// behavior. It returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{}
}

// Get describes the get operation and its observable behavior.
func (m *Memory) Get(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Set describes the set operation and its observable behavior.
func (m *Memory) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear describes the clear operation and its observable behavior.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
