package stream

import "errors"

var (
	// ErrAlreadyInitialized is returned when initialization is repeated.
	ErrAlreadyInitialized = errors.New("stream: already initialized")
	// ErrNotInitialized is returned when settings are read before initialization.
	ErrNotInitialized = errors.New("stream: not initialized")
	// ErrStreamNotFound is returned when a stream id is unknown.
	ErrStreamNotFound = errors.New("stream: not found")
	// ErrUnauthorized is returned when the caller is not a permitted party.
	ErrUnauthorized = errors.New("stream: unauthorized")
	// ErrInvalidAmount is returned when an amount is zero or negative.
	ErrInvalidAmount = errors.New("stream: invalid amount")
	// ErrInvalidTimeOrdering is returned when start/cliff/stop constraints are violated.
	ErrInvalidTimeOrdering = errors.New("stream: invalid time ordering")
	// ErrExceedsEntitlement is returned when a withdrawal exceeds the streamed amount.
	ErrExceedsEntitlement = errors.New("stream: exceeds streamed amount")
	// ErrSelfTransferRejected is returned when the withdrawal target is the custody account.
	ErrSelfTransferRejected = errors.New("stream: transfer to custody account")
	// ErrTransferFailed is returned when the token ledger reports a failure.
	ErrTransferFailed = errors.New("stream: transfer failed")
	// ErrStreamCancelled is returned when operating on a cancelled stream.
	ErrStreamCancelled = errors.New("stream: cancelled")
	// ErrNilStream is returned when persisting a nil stream.
	ErrNilStream = errors.New("stream: nil stream")
)
