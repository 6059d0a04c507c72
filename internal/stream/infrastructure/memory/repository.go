// Package memory provides in-memory implementations of the stream
// stores for tests and single-process deployments.
package memory

import (
	"context"
	"sync"

	stream "paystream/internal/stream/domain"
)

// Repository is an in-memory stream repository.
type Repository struct {
	mu     sync.RWMutex
	data   map[uint64]*stream.Stream
	nextID uint64
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[uint64]*stream.Stream), nextID: 1}
}

// Get loads a stream record by id.
func (r *Repository) Get(ctx context.Context, id uint64) (*stream.Stream, error) {
	_ = ctx
	r.mu.RLock()
	record := r.data[id]
	r.mu.RUnlock()
	if record == nil {
		return nil, nil
	}
	return record.Clone(), nil
}

// Save persists a stream record (overwrites existing).
func (r *Repository) Save(ctx context.Context, s *stream.Stream) error {
	_ = ctx
	if s == nil {
		return stream.ErrNilStream
	}
	copy := s.Clone()
	r.mu.Lock()
	r.data[s.ID] = copy
	r.mu.Unlock()
	return nil
}

// NextID allocates the next stream id. Ids are never reused, even when
// the operation that claimed one aborts.
func (r *Repository) NextID(ctx context.Context) (uint64, error) {
	_ = ctx
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.mu.Unlock()
	return id, nil
}

// SettingsStore is an in-memory settings store.
type SettingsStore struct {
	mu       sync.RWMutex
	settings *stream.Settings
}

// NewSettingsStore constructs a settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

// Get returns the settings record, (nil, nil) before initialization.
func (s *SettingsStore) Get(ctx context.Context) (*stream.Settings, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, nil
	}
	copy := *s.settings
	return &copy, nil
}

// Save persists the settings record.
func (s *SettingsStore) Save(ctx context.Context, settings stream.Settings) error {
	_ = ctx
	s.mu.Lock()
	s.settings = &settings
	s.mu.Unlock()
	return nil
}

// FeeRegistry is an in-memory per-asset fee table.
type FeeRegistry struct {
	mu   sync.RWMutex
	fees map[string]int64
}

// NewFeeRegistry constructs a fee registry.
func NewFeeRegistry() *FeeRegistry {
	return &FeeRegistry{fees: make(map[string]int64)}
}

// AssetFee returns the fee for an asset, 0 when unset.
func (f *FeeRegistry) AssetFee(ctx context.Context, asset string) (int64, error) {
	_ = ctx
	f.mu.RLock()
	fee := f.fees[asset]
	f.mu.RUnlock()
	return fee, nil
}

// SetAssetFee stores the fee for an asset.
func (f *FeeRegistry) SetAssetFee(ctx context.Context, asset string, fee int64) error {
	_ = ctx
	f.mu.Lock()
	f.fees[asset] = fee
	f.mu.Unlock()
	return nil
}
