package vault

import (
	"context"
	"sync"
)

// Memory is an in-process [Vault] with no encryption and no durability.
// Intended for tests and throwaway dev hosts.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string

	// FailAll forces every operation to return ErrStorage, letting tests
	// exercise fail-closed paths.
	FailAll bool
}

// NewMemory returns an empty in-memory vault.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements [Vault].
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailAll {
		return "", ErrStorage
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements [Vault].
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrStorage
	}
	m.values[key] = value
	return nil
}

// Delete implements [Vault].
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrStorage
	}
	delete(m.values, key)
	return nil
}

// Clear implements [Vault].
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrStorage
	}
	m.values = make(map[string]string)
	return nil
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
