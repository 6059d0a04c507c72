// Package postgres persists stream records and settings.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pg "paystream/internal/postgres"
	stream "paystream/internal/stream/domain"
)

const (
	defaultStreamsTable  = "streams"
	defaultStreamIDSeq   = "stream_id_seq"
	defaultSettingsTable = "stream_settings"
)

// Repository is a Postgres stream repository.
type Repository struct {
	db       *sql.DB
	table    string
	sequence string
}

// Option configures the repository.
type Option func(*Repository)

// WithStreamsTable overrides the streams table name.
func WithStreamsTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithIDSequence overrides the id sequence name.
func WithIDSequence(sequence string) Option {
	return func(r *Repository) {
		if sequence != "" {
			r.sequence = sequence
		}
	}
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB, opts ...Option) *Repository {
	repo := &Repository{db: db, table: defaultStreamsTable, sequence: defaultStreamIDSeq}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Get loads a stream record by id, (nil, nil) when absent.
func (r *Repository) Get(ctx context.Context, id uint64) (*stream.Stream, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stream repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, sender, recipient, token, start_time, cliff_time, stop_time,
	deposit, withdrawn, refunded, is_cancellable, is_cancelled, is_depleted
FROM %s
WHERE id = $1`, r.table)

	row := pg.QuerierFrom(ctx, r.db).QueryRowContext(ctx, query, int64(id))

	var record stream.Stream
	var recordID int64
	err := row.Scan(
		&recordID, &record.Sender, &record.Recipient, &record.Token,
		&record.StartTime, &record.CliffTime, &record.StopTime,
		&record.Deposit, &record.Withdrawn, &record.Refunded,
		&record.IsCancellable, &record.IsCancelled, &record.IsDepleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record.ID = uint64(recordID)
	return &record, nil
}

// Save persists a stream record, inserting or overwriting the mutable
// fields.
func (r *Repository) Save(ctx context.Context, s *stream.Stream) error {
	if r == nil || r.db == nil {
		return errors.New("stream repo: nil db")
	}
	if s == nil {
		return stream.ErrNilStream
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, sender, recipient, token, start_time, cliff_time, stop_time,
	deposit, withdrawn, refunded, is_cancellable, is_cancelled, is_depleted
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
ON CONFLICT (id) DO UPDATE SET
	withdrawn = EXCLUDED.withdrawn,
	refunded = EXCLUDED.refunded,
	is_cancelled = EXCLUDED.is_cancelled,
	is_depleted = EXCLUDED.is_depleted`, r.table)

	_, err := pg.QuerierFrom(ctx, r.db).ExecContext(ctx, query,
		int64(s.ID), s.Sender, s.Recipient, s.Token,
		s.StartTime, s.CliffTime, s.StopTime,
		s.Deposit, s.Withdrawn, s.Refunded,
		s.IsCancellable, s.IsCancelled, s.IsDepleted,
	)
	return err
}

// NextID allocates the next stream id from the sequence. Sequence values
// survive rollbacks, so an aborted operation never releases its id.
func (r *Repository) NextID(ctx context.Context) (uint64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("stream repo: nil db")
	}
	query := fmt.Sprintf(`SELECT nextval('%s')`, r.sequence)
	var id int64
	if err := pg.QuerierFrom(ctx, r.db).QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SettingsStore persists the one-time settings record.
type SettingsStore struct {
	db    *sql.DB
	table string
}

// NewSettingsStore constructs a settings store.
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db, table: defaultSettingsTable}
}

// Get returns the settings record, (nil, nil) before initialization.
func (s *SettingsStore) Get(ctx context.Context) (*stream.Settings, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("settings store: nil db")
	}
	query := fmt.Sprintf(`SELECT admin_account, base_fee FROM %s WHERE id = 1`, s.table)
	row := pg.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query)

	var settings stream.Settings
	err := row.Scan(&settings.Admin, &settings.BaseFee)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save persists the settings record.
func (s *SettingsStore) Save(ctx context.Context, settings stream.Settings) error {
	if s == nil || s.db == nil {
		return errors.New("settings store: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, admin_account, base_fee)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET admin_account = EXCLUDED.admin_account, base_fee = EXCLUDED.base_fee`, s.table)
	_, err := pg.QuerierFrom(ctx, s.db).ExecContext(ctx, query, settings.Admin, settings.BaseFee)
	return err
}
