// Package stream holds the stream accounting domain: the stream record,
// the time-based vesting calculator and the derived lifecycle status.
package stream

import "context"

// Settings is the one-time initialization record.
type Settings struct {
	Admin   string
	BaseFee int64
}

// Stream is a single vesting schedule from sender to recipient for a
// fixed deposit over [StartTime, StopTime]. Timestamps are unix seconds.
// Once created only Withdrawn, Refunded, IsCancelled and IsDepleted may
// change, and each of those moves in one direction only.
type Stream struct {
	ID            uint64
	Sender        string
	Recipient     string
	Token         string
	StartTime     int64
	CliffTime     int64
	StopTime      int64
	Deposit       int64
	Withdrawn     int64
	Refunded      int64
	IsCancellable bool
	IsCancelled   bool
	IsDepleted    bool
}

// NewStream validates the creation parameters and builds a stream record
// with zeroed mutable fields. Time ordering must satisfy
// start <= cliff < stop.
func NewStream(id uint64, sender, recipient, token string, deposit, startTime, cliffTime, stopTime int64, cancellable bool) (*Stream, error) {
	if deposit <= 0 {
		return nil, ErrInvalidAmount
	}
	if cliffTime < startTime || stopTime <= startTime || stopTime <= cliffTime {
		return nil, ErrInvalidTimeOrdering
	}
	return &Stream{
		ID:            id,
		Sender:        sender,
		Recipient:     recipient,
		Token:         token,
		StartTime:     startTime,
		CliffTime:     cliffTime,
		StopTime:      stopTime,
		Deposit:       deposit,
		IsCancellable: cancellable,
	}, nil
}

// RecordWithdrawal increments the cumulative withdrawn amount. The
// entitlement check against the vesting calculator happens in the
// application layer; this only guards the record invariants.
func (s *Stream) RecordWithdrawal(amount int64) error {
	if s == nil {
		return ErrNilStream
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if s.IsCancelled {
		return ErrStreamCancelled
	}
	if s.Withdrawn+amount > s.Deposit {
		return ErrExceedsEntitlement
	}
	s.Withdrawn += amount
	return nil
}

// Settle marks the stream cancelled and records the terminal payouts:
// the recipient share joins Withdrawn and the sender share becomes
// Refunded. It fails if the stream is already cancelled.
func (s *Stream) Settle(recipientBalance, senderBalance int64) error {
	if s == nil {
		return ErrNilStream
	}
	if s.IsCancelled {
		return ErrStreamCancelled
	}
	if recipientBalance < 0 || senderBalance < 0 {
		return ErrInvalidAmount
	}
	s.IsCancelled = true
	s.Withdrawn += recipientBalance
	s.Refunded += senderBalance
	return nil
}

// Clone returns a detached copy.
func (s *Stream) Clone() *Stream {
	if s == nil {
		return nil
	}
	copy := *s
	return &copy
}

// Repository persists stream records and allocates identifiers.
// Get returns (nil, nil) when the id is unknown. NextID yields strictly
// increasing ids starting at 1 and never reuses one, even when the
// enclosing operation aborts.
type Repository interface {
	Get(ctx context.Context, id uint64) (*Stream, error)
	Save(ctx context.Context, s *Stream) error
	NextID(ctx context.Context) (uint64, error)
}

// SettingsStore persists the one-time initialization record.
// Get returns (nil, nil) before initialization.
type SettingsStore interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, settings Settings) error
}
