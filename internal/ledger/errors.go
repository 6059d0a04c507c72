// Package ledger defines the fungible-token ledger the stream engine
// debits and credits. Implementations live in the subpackages.
package ledger

import "errors"

var (
	// ErrInvalidAmount is returned when a transfer amount is not positive.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrInsufficientFunds is returned when the source balance cannot cover a transfer.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrSameAccount is returned when source and destination are identical.
	ErrSameAccount = errors.New("ledger: transfer to same account")
)
