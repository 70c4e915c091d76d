// Package libdbexec wraps database/sql behind a small manager/executor pair
// with a driver-independent error taxonomy. The sync core uses it for the
// SQL-backed key-value substrate (SQLite for local files, Postgres for shared
// deployments).
package libdbexec

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrNotFound            = errors.New("libdbexec: not found")
	ErrTxFailed            = errors.New("libdbexec: transaction failed")
	ErrUniqueViolation     = errors.New("libdbexec: unique constraint violation")
	ErrForeignKeyViolation = errors.New("libdbexec: foreign key violation")
	ErrNotNullViolation    = errors.New("libdbexec: not null violation")
	ErrQueryCanceled       = errors.New("libdbexec: query canceled")
)

// Exec executes statements either directly on the pool or inside a
// transaction, depending on how it was obtained.
type Exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CommitTx commits a transaction obtained from WithTransaction.
type CommitTx func(ctx context.Context) error

// ReleaseTx rolls back when the transaction was not committed. Safe to defer
// unconditionally.
type ReleaseTx func() error

// DBManager owns a database connection and hands out executors.
type DBManager interface {
	WithoutTransaction() Exec
	WithTransaction(ctx context.Context, onRollback ...func()) (Exec, CommitTx, ReleaseTx, error)
	Close() error
}

// txAwareDB routes statements to the transaction when one is bound, the pool
// otherwise, translating driver errors into the package taxonomy.
type txAwareDB struct {
	db           *sql.DB
	tx           *sql.Tx
	errTranslate func(error) error
}

func (t *txAwareDB) translate(err error) error {
	if err == nil || t.errTranslate == nil {
		return err
	}
	return t.errTranslate(err)
}

func (t *txAwareDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res sql.Result
		err error
	)
	if t.tx != nil {
		res, err = t.tx.ExecContext(ctx, query, args...)
	} else {
		res, err = t.db.ExecContext(ctx, query, args...)
	}
	return res, t.translate(err)
}

func (t *txAwareDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if t.tx != nil {
		rows, err = t.tx.QueryContext(ctx, query, args...)
	} else {
		rows, err = t.db.QueryContext(ctx, query, args...)
	}
	return rows, t.translate(err)
}

func (t *txAwareDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if t.tx != nil {
		return t.tx.QueryRowContext(ctx, query, args...)
	}
	return t.db.QueryRowContext(ctx, query, args...)
}

var _ Exec = (*txAwareDB)(nil)
