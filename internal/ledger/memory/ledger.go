// Package memory provides an in-memory token ledger for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"

	"paystream/internal/ledger"
)

type balanceKey struct {
	account string
	asset   string
}

// Ledger keeps (account, asset) balances in memory.
type Ledger struct {
	mu       sync.Mutex
	balances map[balanceKey]int64
}

// NewLedger constructs a ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[balanceKey]int64)}
}

// Mint credits an account out of thin air. Test setup only.
func (l *Ledger) Mint(account, asset string, amount int64) {
	l.mu.Lock()
	l.balances[balanceKey{account, asset}] += amount
	l.mu.Unlock()
}

// Balance returns the balance of an account for an asset.
func (l *Ledger) Balance(account, asset string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey{account, asset}]
}

// Transfer moves tokens between accounts, failing when the source
// balance cannot cover the amount.
func (l *Ledger) Transfer(ctx context.Context, from, to, asset string, amount int64) error {
	_ = ctx
	if amount <= 0 {
		return ledger.ErrInvalidAmount
	}
	if from == to {
		return ledger.ErrSameAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromKey := balanceKey{from, asset}
	if l.balances[fromKey] < amount {
		return ledger.ErrInsufficientFunds
	}
	l.balances[fromKey] -= amount
	l.balances[balanceKey{to, asset}] += amount
	return nil
}
