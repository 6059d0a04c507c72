// Package application orchestrates the stream lifecycle operations:
// validation, authorization, calculator invocation, record mutation and
// ledger movements, each as a single unit of work.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	stream "paystream/internal/stream/domain"
)

// Ledger moves fungible tokens between accounts. A reported failure
// aborts the enclosing operation.
type Ledger interface {
	Transfer(ctx context.Context, from, to, asset string, amount int64) error
}

// FeeRegistry resolves the per-asset surcharge applied at creation.
// A missing entry is fee 0, never an error.
type FeeRegistry interface {
	AssetFee(ctx context.Context, asset string) (int64, error)
	SetAssetFee(ctx context.Context, asset string, fee int64) error
}

// Authorizer confirms the caller proved the given principal identity.
type Authorizer interface {
	RequireAuth(ctx context.Context, principal string) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TxRunner executes a function as one atomic unit of work: every state
// mutation inside commits or none does.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTxRunner runs the function directly. It backs the in-memory
// infrastructure where each store is already atomic on its own.
type NopTxRunner struct{}

func (NopTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CreateRequest carries the creation parameters. Timestamps are unix
// seconds.
type CreateRequest struct {
	Sender      string
	Recipient   string
	Amount      int64
	Asset       string
	StartTime   int64
	StopTime    int64
	Cancellable bool
	CliffTime   int64
}

// Service implements the stream lifecycle operations and queries.
type Service struct {
	repo      stream.Repository
	settings  stream.SettingsStore
	ledger    Ledger
	fees      FeeRegistry
	publisher EventPublisher
	auth      Authorizer
	clock     Clock
	tx        TxRunner
	custody   string
}

// NewService constructs the service. The custody account holds deposits
// between creation and payout.
func NewService(
	repo stream.Repository,
	settings stream.SettingsStore,
	ledger Ledger,
	fees FeeRegistry,
	publisher EventPublisher,
	auth Authorizer,
	clock Clock,
	tx TxRunner,
	custody string,
) (*Service, error) {
	if repo == nil {
		return nil, errors.New("stream service: nil repository")
	}
	if settings == nil {
		return nil, errors.New("stream service: nil settings store")
	}
	if ledger == nil {
		return nil, errors.New("stream service: nil ledger")
	}
	if fees == nil {
		return nil, errors.New("stream service: nil fee registry")
	}
	if auth == nil {
		return nil, errors.New("stream service: nil authorizer")
	}
	if custody == "" {
		return nil, errors.New("stream service: empty custody account")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if tx == nil {
		tx = NopTxRunner{}
	}
	return &Service{
		repo:      repo,
		settings:  settings,
		ledger:    ledger,
		fees:      fees,
		publisher: publisher,
		auth:      auth,
		clock:     clock,
		tx:        tx,
		custody:   custody,
	}, nil
}

// Initialize writes the one-time settings record. A second call fails.
func (s *Service) Initialize(ctx context.Context, settings stream.Settings) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.settings.Get(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			return stream.ErrAlreadyInitialized
		}
		return s.settings.Save(ctx, settings)
	})
}

// Settings returns the initialization record.
func (s *Service) Settings(ctx context.Context) (stream.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return stream.Settings{}, err
	}
	if settings == nil {
		return stream.Settings{}, stream.ErrNotInitialized
	}
	return *settings, nil
}

// Create validates, funds and persists a new stream, returning its id.
// The debit of deposit plus fee from the sender must fully succeed or
// the whole operation aborts with no state change.
func (s *Service) Create(ctx context.Context, req CreateRequest) (uint64, error) {
	if err := s.auth.RequireAuth(ctx, req.Sender); err != nil {
		return 0, err
	}
	if req.Amount <= 0 {
		return 0, stream.ErrInvalidAmount
	}
	now := s.clock.Now().Unix()
	if req.StartTime < now {
		return 0, stream.ErrInvalidTimeOrdering
	}

	var id uint64
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		fee, err := s.fees.AssetFee(ctx, req.Asset)
		if err != nil {
			return err
		}

		next, err := s.repo.NextID(ctx)
		if err != nil {
			return err
		}

		record, err := stream.NewStream(next, req.Sender, req.Recipient, req.Asset, req.Amount, req.StartTime, req.CliffTime, req.StopTime, req.Cancellable)
		if err != nil {
			return err
		}

		if err := s.ledger.Transfer(ctx, req.Sender, s.custody, req.Asset, req.Amount+fee); err != nil {
			return fmt.Errorf("%w: %v", stream.ErrTransferFailed, err)
		}

		if err := s.repo.Save(ctx, record); err != nil {
			return err
		}

		s.publish(ctx, func(ctx context.Context) error {
			return s.publisher.PublishStreamCreated(ctx, StreamCreated{
				StreamID:   next,
				Sender:     req.Sender,
				Recipient:  req.Recipient,
				Asset:      req.Asset,
				Deposit:    req.Amount,
				StartTime:  req.StartTime,
				StopTime:   req.StopTime,
				OccurredAt: s.clock.Now().UTC(),
			})
		})
		id = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Withdraw pays out part of the streamed amount to the recipient. The
// record mutation is persisted before the ledger credit so a reentrant
// call observes updated state.
func (s *Service) Withdraw(ctx context.Context, caller, recipient string, id uint64, amount int64) error {
	if err := s.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}
	if amount <= 0 {
		return stream.ErrInvalidAmount
	}
	if recipient == s.custody {
		return stream.ErrSelfTransferRejected
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		record, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return stream.ErrStreamNotFound
		}
		if caller != record.Sender && caller != record.Recipient {
			return stream.ErrUnauthorized
		}
		if recipient != record.Recipient {
			return stream.ErrUnauthorized
		}
		if record.IsCancelled {
			return stream.ErrStreamCancelled
		}

		// The bound is the cumulative streamed-to-date figure: total
		// withdrawals including this request may not pass it.
		streamed := stream.StreamedAmount(record, s.clock.Now().Unix())
		if record.Withdrawn+amount > streamed {
			return stream.ErrExceedsEntitlement
		}

		if err := record.RecordWithdrawal(amount); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, record); err != nil {
			return err
		}
		if err := s.ledger.Transfer(ctx, s.custody, recipient, record.Token, amount); err != nil {
			return fmt.Errorf("%w: %v", stream.ErrTransferFailed, err)
		}

		s.publish(ctx, func(ctx context.Context) error {
			return s.publisher.PublishStreamWithdrawn(ctx, StreamWithdrawn{
				StreamID:   id,
				Recipient:  recipient,
				Amount:     amount,
				OccurredAt: s.clock.Now().UTC(),
			})
		})
		return nil
	})
}

// Cancel settles the remaining balance pro-rata: the streamed-but-
// unwithdrawn part goes to the recipient, the rest back to the sender.
// The cancelled flag is persisted before any transfer. Sender or
// recipient may cancel; the cancellable flag recorded at creation is
// not consulted.
func (s *Service) Cancel(ctx context.Context, caller string, id uint64) error {
	if err := s.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		record, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return stream.ErrStreamNotFound
		}
		if caller != record.Sender && caller != record.Recipient {
			return stream.ErrUnauthorized
		}

		streamed := stream.StreamedAmount(record, s.clock.Now().Unix())
		recipientBalance := streamed - record.Withdrawn
		senderBalance := record.Deposit - streamed

		if err := record.Settle(recipientBalance, senderBalance); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, record); err != nil {
			return err
		}

		if recipientBalance > 0 {
			if err := s.ledger.Transfer(ctx, s.custody, record.Recipient, record.Token, recipientBalance); err != nil {
				return fmt.Errorf("%w: %v", stream.ErrTransferFailed, err)
			}
		}
		if senderBalance > 0 {
			if err := s.ledger.Transfer(ctx, s.custody, record.Sender, record.Token, senderBalance); err != nil {
				return fmt.Errorf("%w: %v", stream.ErrTransferFailed, err)
			}
		}

		s.publish(ctx, func(ctx context.Context) error {
			return s.publisher.PublishStreamCancelled(ctx, StreamCancelled{
				StreamID:   id,
				OccurredAt: s.clock.Now().UTC(),
			})
		})
		return nil
	})
}

// GetStream returns a stream record, or (nil, nil) when the id is unknown.
func (s *Service) GetStream(ctx context.Context, id uint64) (*stream.Stream, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// StreamedAmount returns the cumulative streamed amount for a stream.
// Unlike the other queries it fails on an unknown id: there is no safe
// default amount.
func (s *Service) StreamedAmount(ctx context.Context, id uint64) (int64, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, stream.ErrStreamNotFound
	}
	return stream.StreamedAmount(record, s.clock.Now().Unix()), nil
}

// Status derives the current lifecycle status. The second return value
// is false when the id is unknown.
func (s *Service) Status(ctx context.Context, id uint64) (stream.Status, bool, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", false, err
	}
	if record == nil {
		return "", false, nil
	}
	return stream.ResolveStatus(record, s.clock.Now().Unix()), true, nil
}

// AssetFee returns the creation surcharge for an asset, zero when none
// was configured.
func (s *Service) AssetFee(ctx context.Context, asset string) (int64, error) {
	return s.fees.AssetFee(ctx, asset)
}

// SetAssetFee writes the per-asset creation surcharge. Only the admin
// recorded at initialization may call it.
func (s *Service) SetAssetFee(ctx context.Context, caller, asset string, fee int64) error {
	if err := s.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}
	if fee < 0 {
		return stream.ErrInvalidAmount
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if settings == nil {
		return stream.ErrNotInitialized
	}
	if caller != settings.Admin {
		return stream.ErrUnauthorized
	}
	return s.fees.SetAssetFee(ctx, asset, fee)
}

// publish delivers a notification without letting a notifier failure
// reach the caller.
func (s *Service) publish(ctx context.Context, fn func(ctx context.Context) error) {
	if s.publisher == nil {
		return
	}
	_ = fn(ctx)
}
