package libkv

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// InMem is an in-memory Manager/Executor for tests and ephemeral runs.
type InMem struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewInMem returns an empty in-memory store.
func NewInMem() *InMem {
	return &InMem{values: make(map[string]json.RawMessage)}
}

func (m *InMem) Executor(ctx context.Context) (Executor, error) {
	return m, nil
}

func (m *InMem) Close() error {
	m.mu.Lock()
	m.values = make(map[string]json.RawMessage)
	m.mu.Unlock()
	return nil
}

func (m *InMem) Get(ctx context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(json.RawMessage, len(value))
	copy(out, value)
	return out, nil
}

func (m *InMem) Set(ctx context.Context, key string, value json.RawMessage) error {
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	m.mu.Lock()
	m.values[key] = stored
	m.mu.Unlock()
	return nil
}

func (m *InMem) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

func (m *InMem) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.values[key]
	m.mu.RUnlock()
	return ok, nil
}

func (m *InMem) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

var (
	_ Manager  = (*InMem)(nil)
	_ Executor = (*InMem)(nil)
)
