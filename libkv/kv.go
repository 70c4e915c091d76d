// Package libkv is the key-value storage substrate for the scoped persistent
// collections. Values are JSON payloads; keys follow the scope-key naming
// contract ({collection}_user_{id} / {collection}_guest). Three backends are
// provided: valkey for shared deployments, a SQL kv table (SQLite or
// Postgres) for durable local storage, and an in-memory map for tests.
package libkv

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("libkv: not found")

// Config holds connection settings for the valkey backend.
type Config struct {
	KVAddr     string
	KVPassword string
}

// Executor performs key-value operations. All operations are synchronous and
// atomic per call; concurrent writers are last-write-wins.
type Executor interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys lists all keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Manager owns a backend connection and hands out executors.
type Manager interface {
	Executor(ctx context.Context) (Executor, error)
	Close() error
}
