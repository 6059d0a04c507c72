// Package postgres carries the shared transaction plumbing: one unit of
// work spans the stream repository, the token ledger and the event
// outbox, so the transaction travels through the context.
package postgres

import (
	"context"
	"database/sql"
	"errors"
)

type contextKey string

const contextKeyTx contextKey = "postgres.tx"

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx attaches a transaction to the context.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, contextKeyTx, tx)
}

// QuerierFrom returns the transaction from the context when present,
// falling back to the plain connection.
func QuerierFrom(ctx context.Context, db *sql.DB) Querier {
	if value := ctx.Value(contextKeyTx); value != nil {
		if tx, ok := value.(*sql.Tx); ok {
			return tx
		}
	}
	return db
}

// TxRunner runs functions inside a database transaction.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner constructs a runner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// InTx begins a transaction, attaches it to the context and commits when
// fn succeeds, rolling back otherwise. Nested calls reuse the enclosing
// transaction.
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.db == nil {
		return errors.New("tx runner: nil db")
	}
	if value := ctx.Value(contextKeyTx); value != nil {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
