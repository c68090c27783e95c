package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*BalanceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewBalanceCache(client, time.Minute), mr
}

func TestBalanceCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, hit := cache.Get(ctx, 1, "GOLD_COINS")
	require.False(t, hit)

	cache.Set(ctx, 1, "GOLD_COINS", dec("42.50"))
	balance, hit := cache.Get(ctx, 1, "GOLD_COINS")
	require.True(t, hit)
	require.True(t, balance.Equal(dec("42.50")))

	// Keys are scoped per user and asset.
	_, hit = cache.Get(ctx, 2, "GOLD_COINS")
	require.False(t, hit)
	_, hit = cache.Get(ctx, 1, "LOYALTY_POINTS")
	require.False(t, hit)
}

func TestBalanceCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, 1, "GOLD_COINS", dec("10.00"))
	cache.Invalidate(ctx, 1, "GOLD_COINS")

	_, hit := cache.Get(ctx, 1, "GOLD_COINS")
	require.False(t, hit)
}

func TestBalanceCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, 1, "GOLD_COINS", dec("10.00"))
	mr.FastForward(2 * time.Minute)

	_, hit := cache.Get(ctx, 1, "GOLD_COINS")
	require.False(t, hit)
}

func TestBalanceCacheCorruptValueFailsOpen(t *testing.T) {
	cache, mr := newTestCache(t)

	require.NoError(t, mr.Set(balanceKey(1, "GOLD_COINS"), "not-a-number"))
	_, hit := cache.Get(context.Background(), 1, "GOLD_COINS")
	require.False(t, hit)
}
