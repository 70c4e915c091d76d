// Package collectionstore persists identity-scoped item lists on the
// key-value substrate. It owns the serialization contract: values are JSON
// arrays, one entry per scope key, written back after every mutation.
package collectionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atelierline/storesync/libkv"
)

// Store reads and writes one collection item type under scope keys.
type Store[T any] struct {
	kv libkv.Executor
}

// New creates a store over the given KV executor.
func New[T any](kv libkv.Executor) *Store[T] {
	return &Store[T]{kv: kv}
}

// Load returns the items persisted under scopeKey. A missing entry is an
// empty collection. A corrupt payload is also treated as empty and is
// overwritten in place so corruption never reaches the caller as an error.
func (s *Store[T]) Load(ctx context.Context, scopeKey string) ([]T, error) {
	raw, err := s.kv.Get(ctx, scopeKey)
	if errors.Is(err, libkv.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("collectionstore: load %q: %w", scopeKey, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		// Unparsable state is reset, not surfaced.
		if saveErr := s.Save(ctx, scopeKey, []T{}); saveErr != nil {
			return nil, fmt.Errorf("collectionstore: reset corrupt entry %q: %w", scopeKey, saveErr)
		}
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save serializes items and writes them under scopeKey.
func (s *Store[T]) Save(ctx context.Context, scopeKey string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("collectionstore: marshal %q: %w", scopeKey, err)
	}
	if err := s.kv.Set(ctx, scopeKey, raw); err != nil {
		return fmt.Errorf("collectionstore: save %q: %w", scopeKey, err)
	}
	return nil
}

// Clear deletes the persisted entry for scopeKey. Clearing an absent entry is
// a no-op.
func (s *Store[T]) Clear(ctx context.Context, scopeKey string) error {
	if err := s.kv.Delete(ctx, scopeKey); err != nil && !errors.Is(err, libkv.ErrNotFound) {
		return fmt.Errorf("collectionstore: clear %q: %w", scopeKey, err)
	}
	return nil
}
