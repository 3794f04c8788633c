package cache

import (
	"context"
	"sync"
)

// Memory is a process-local store used by the export job: one instance per
// run, discarded on exit. It keeps negative results so a failed token is
// not retried within the same run. No eviction; token volume is bounded by
// the per-client cap and total client count.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

func (m *Memory) Get(_ context.Context, token string) (*Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[token]
	return e, ok, nil
}

func (m *Memory) Set(_ context.Context, token string, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[token] = e
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Entry)
	return nil
}

var _ Store = (*Memory)(nil)
