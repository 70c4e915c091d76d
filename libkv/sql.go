package libkv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	libdb "github.com/atelierline/storesync/libdbexec"
)

// SchemaPostgres and SchemaSQLite create the kv table. Value is stored as the
// JSON text the collection layer produced.
const (
	SchemaPostgres = `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`
	SchemaSQLite = `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`
)

type sqlManager struct {
	db libdb.DBManager
}

// NewSQLManager adapts a libdbexec manager into a KV manager over the kv
// table. The caller applies the matching schema when opening the database.
func NewSQLManager(db libdb.DBManager) Manager {
	return &sqlManager{db: db}
}

func (m *sqlManager) Executor(ctx context.Context) (Executor, error) {
	return &sqlExecutor{exec: m.db.WithoutTransaction()}, nil
}

func (m *sqlManager) Close() error {
	return m.db.Close()
}

type sqlExecutor struct {
	exec libdb.Exec
}

func (e *sqlExecutor) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := e.exec.QueryRowContext(ctx, `
		SELECT value
		FROM kv
		WHERE key = $1`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("libkv: get %q: %w", key, err)
	}
	return json.RawMessage(value), nil
}

func (e *sqlExecutor) Set(ctx context.Context, key string, value json.RawMessage) error {
	now := time.Now().UTC()
	_, err := e.exec.ExecContext(ctx, `
		INSERT INTO kv (key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = $2, updated_at = $4`,
		key,
		string(value),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("libkv: set %q: %w", key, err)
	}
	return nil
}

func (e *sqlExecutor) Delete(ctx context.Context, key string) error {
	_, err := e.exec.ExecContext(ctx, `
		DELETE FROM kv
		WHERE key = $1`,
		key,
	)
	if err != nil {
		return fmt.Errorf("libkv: delete %q: %w", key, err)
	}
	return nil
}

func (e *sqlExecutor) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := e.exec.QueryRowContext(ctx, `
		SELECT 1
		FROM kv
		WHERE key = $1`,
		key,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("libkv: exists %q: %w", key, err)
	}
	return true, nil
}

func (e *sqlExecutor) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := e.exec.QueryContext(ctx, `
		SELECT key
		FROM kv
		WHERE key LIKE $1 || '%'
		ORDER BY key ASC`,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("libkv: keys %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("libkv: scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("libkv: rows iteration error: %w", err)
	}
	return keys, nil
}

var _ Executor = (*sqlExecutor)(nil)
