// Package store provides settings.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/retirement-engine/settings"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	settings map[string]settings.Settings
}

func NewMemory() *Memory {
	return &Memory{settings: make(map[string]settings.Settings)}
}

func (m *Memory) LoadSettings(_ context.Context, key string) (settings.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.settings[key]
	if !ok {
		return settings.Settings{}, settings.ErrNotFound
	}
	return st, nil
}

func (m *Memory) SaveSettings(_ context.Context, key string, st settings.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = st
	return nil
}

func (m *Memory) DeleteSettings(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, key)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.settings)
}
