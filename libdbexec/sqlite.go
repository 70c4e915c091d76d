package libdbexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteDBManager backs the local single-process mode; shared deployments use
// Postgres or valkey instead.
type sqliteDBManager struct {
	dbInstance *sql.DB
}

// NewSQLiteDBManager opens (creating if needed) the SQLite file at path and
// applies the schema. The parent directory is created when missing;
// ":memory:" is honored for tests.
func NewSQLiteDBManager(ctx context.Context, path string, schema string) (DBManager, error) {
	if err := ensureSQLiteParentDir(path); err != nil {
		return nil, fmt.Errorf("sqlite parent dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", translateSQLiteError(err))
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite connection failed: %w", translateSQLiteError(err))
	}

	// SQLite does not enforce foreign keys by default.
	if _, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite foreign_keys pragma failed: %w", translateSQLiteError(err))
	}

	if schema != "" {
		if _, err = db.ExecContext(ctx, schema); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize sqlite schema: %w", translateSQLiteError(err))
		}
	}

	return &sqliteDBManager{dbInstance: db}, nil
}

func (m *sqliteDBManager) WithoutTransaction() Exec {
	return &txAwareDB{db: m.dbInstance, errTranslate: translateSQLiteError}
}

func (m *sqliteDBManager) WithTransaction(ctx context.Context, onRollback ...func()) (Exec, CommitTx, ReleaseTx, error) {
	tx, err := m.dbInstance.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, func() error { return nil }, fmt.Errorf("%w: begin transaction failed: %w", ErrTxFailed, translateSQLiteError(err))
	}

	store := &txAwareDB{tx: tx, errTranslate: translateSQLiteError}
	committed := false
	rollback := func() {
		for _, f := range onRollback {
			if f != nil {
				f()
			}
		}
	}

	commitFn := func(commitCtx context.Context) error {
		if ctxErr := commitCtx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: context error before commit: %w", ErrTxFailed, ctxErr)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: commit failed: %w", ErrTxFailed, translateSQLiteError(err))
		}
		committed = true
		return nil
	}

	releaseFn := func() error {
		rollbackErr := tx.Rollback()
		if !committed {
			rollback()
		}
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return fmt.Errorf("%w: rollback failed: %w", ErrTxFailed, translateSQLiteError(rollbackErr))
		}
		return nil
	}

	return store, commitFn, releaseFn, nil
}

func (m *sqliteDBManager) Close() error {
	if m.dbInstance != nil {
		return m.dbInstance.Close()
	}
	return nil
}

// translateSQLiteError maps driver errors to the package taxonomy. The
// modernc driver reports constraint failures only through the message text.
func translateSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrQueryCanceled, err)
	}
	s := err.Error()
	if strings.Contains(s, "UNIQUE constraint") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	if strings.Contains(s, "FOREIGN KEY constraint") {
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	}
	if strings.Contains(s, "NOT NULL constraint") {
		return fmt.Errorf("%w: %w", ErrNotNullViolation, err)
	}
	return fmt.Errorf("libdbexec: sqlite error: %w", err)
}

// ensureSQLiteParentDir creates the parent directory for file-backed paths.
func ensureSQLiteParentDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file::memory") {
		return nil
	}
	fsPath := path
	if strings.HasPrefix(fsPath, "file:") {
		fsPath = strings.TrimPrefix(fsPath, "file:")
		if before, _, ok := strings.Cut(fsPath, "?"); ok {
			fsPath = before
		}
	}
	dir := filepath.Dir(fsPath)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
