// Package rediscache implements the per-asset fee registry on Redis.
// Fee entries live in a transient cache with their own, shorter
// expiration than stream records; a missing entry means no surcharge.
package rediscache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "fee:asset:"
	defaultTTL       = 24 * time.Hour
)

// FeeRegistry stores per-asset surcharges in Redis.
type FeeRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option configures the registry.
type Option func(*FeeRegistry)

// WithKeyPrefix overrides the key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(f *FeeRegistry) {
		if prefix != "" {
			f.prefix = prefix
		}
	}
}

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(f *FeeRegistry) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// NewFeeRegistry constructs a registry.
func NewFeeRegistry(client *redis.Client, opts ...Option) *FeeRegistry {
	registry := &FeeRegistry{client: client, prefix: defaultKeyPrefix, ttl: defaultTTL}
	for _, opt := range opts {
		opt(registry)
	}
	return registry
}

// AssetFee returns the surcharge for an asset. Absence is fee 0, not an
// error. A hit refreshes the entry lifetime.
func (f *FeeRegistry) AssetFee(ctx context.Context, asset string) (int64, error) {
	if f == nil || f.client == nil {
		return 0, errors.New("fee registry: nil client")
	}
	key := f.prefix + asset
	value, err := f.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	fee, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	_ = f.client.Expire(ctx, key, f.ttl).Err()
	return fee, nil
}

// SetAssetFee stores the surcharge for an asset with the registry TTL.
func (f *FeeRegistry) SetAssetFee(ctx context.Context, asset string, fee int64) error {
	if f == nil || f.client == nil {
		return errors.New("fee registry: nil client")
	}
	return f.client.Set(ctx, f.prefix+asset, strconv.FormatInt(fee, 10), f.ttl).Err()
}
