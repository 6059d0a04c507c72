// Package postgres implements the token ledger over a balances table.
// Transfers join the enclosing unit of work, so a failed stream
// operation rolls its ledger movements back with it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paystream/internal/ledger"
	pg "paystream/internal/postgres"
)

const defaultBalancesTable = "token_balances"

// Ledger persists (account, asset) balances.
type Ledger struct {
	db    *sql.DB
	table string
}

// Option configures the ledger.
type Option func(*Ledger)

// WithBalancesTable overrides the balances table name.
func WithBalancesTable(table string) Option {
	return func(l *Ledger) {
		if table != "" {
			l.table = table
		}
	}
}

// NewLedger constructs a ledger.
func NewLedger(db *sql.DB, opts ...Option) *Ledger {
	l := &Ledger{db: db, table: defaultBalancesTable}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Transfer debits the source and credits the destination. The debit
// fails when the source balance cannot cover the amount.
func (l *Ledger) Transfer(ctx context.Context, from, to, asset string, amount int64) error {
	if l == nil || l.db == nil {
		return errors.New("token ledger: nil db")
	}
	if amount <= 0 {
		return ledger.ErrInvalidAmount
	}
	if from == to {
		return ledger.ErrSameAccount
	}

	querier := pg.QuerierFrom(ctx, l.db)

	debit := fmt.Sprintf(`
UPDATE %s
SET balance = balance - $3
WHERE account = $1 AND asset = $2 AND balance >= $3`, l.table)
	result, err := querier.ExecContext(ctx, debit, from, asset, amount)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrInsufficientFunds
	}

	credit := fmt.Sprintf(`
INSERT INTO %s (account, asset, balance)
VALUES ($1, $2, $3)
ON CONFLICT (account, asset) DO UPDATE SET balance = %s.balance + EXCLUDED.balance`, l.table, l.table)
	_, err = querier.ExecContext(ctx, credit, to, asset, amount)
	return err
}

// Credit adds to an account balance without a source account. Used for
// funding accounts from an external settlement rail.
func (l *Ledger) Credit(ctx context.Context, account, asset string, amount int64) error {
	if l == nil || l.db == nil {
		return errors.New("token ledger: nil db")
	}
	if amount <= 0 {
		return ledger.ErrInvalidAmount
	}
	query := fmt.Sprintf(`
INSERT INTO %s (account, asset, balance)
VALUES ($1, $2, $3)
ON CONFLICT (account, asset) DO UPDATE SET balance = %s.balance + EXCLUDED.balance`, l.table, l.table)
	_, err := pg.QuerierFrom(ctx, l.db).ExecContext(ctx, query, account, asset, amount)
	return err
}

// Balance returns the balance of an account for an asset, 0 when the
// row does not exist.
func (l *Ledger) Balance(ctx context.Context, account, asset string) (int64, error) {
	if l == nil || l.db == nil {
		return 0, errors.New("token ledger: nil db")
	}
	query := fmt.Sprintf(`SELECT balance FROM %s WHERE account = $1 AND asset = $2`, l.table)
	var balance int64
	err := pg.QuerierFrom(ctx, l.db).QueryRowContext(ctx, query, account, asset).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}
