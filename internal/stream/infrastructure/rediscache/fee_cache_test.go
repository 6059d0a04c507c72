package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRegistry(t *testing.T, opts ...Option) (*FeeRegistry, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFeeRegistry(client, opts...), server
}

func TestAssetFee_MissingIsZero(t *testing.T) {
	registry, _ := newTestRegistry(t)
	fee, err := registry.AssetFee(context.Background(), "token-unknown")
	if err != nil {
		t.Fatalf("asset fee: %v", err)
	}
	if fee != 0 {
		t.Fatalf("expected 0 for unset fee, got %d", fee)
	}
}

func TestSetAssetFee_RoundTrip(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()
	if err := registry.SetAssetFee(ctx, "token-native", 10); err != nil {
		t.Fatalf("set asset fee: %v", err)
	}
	fee, err := registry.AssetFee(ctx, "token-native")
	if err != nil {
		t.Fatalf("asset fee: %v", err)
	}
	if fee != 10 {
		t.Fatalf("expected 10, got %d", fee)
	}
}

func TestAssetFee_ExpiresIndependently(t *testing.T) {
	registry, server := newTestRegistry(t, WithTTL(time.Minute))
	ctx := context.Background()
	if err := registry.SetAssetFee(ctx, "token-native", 25); err != nil {
		t.Fatalf("set asset fee: %v", err)
	}

	server.FastForward(2 * time.Minute)

	fee, err := registry.AssetFee(ctx, "token-native")
	if err != nil {
		t.Fatalf("asset fee: %v", err)
	}
	if fee != 0 {
		t.Fatalf("expected expired fee to read as 0, got %d", fee)
	}
}
