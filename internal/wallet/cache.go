package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const balanceKeyPrefix = "wallet:balance:v1:"

// BalanceCache is a Redis read-through cache for balance queries. It only ever
// holds committed balances: the engine invalidates the key inside
// afterMovement, so a stale mid-update value is never served. All cache
// failures fail open to the wallet store.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache wraps a Redis client with the given entry TTL.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(userID int64, assetCode string) string {
	return fmt.Sprintf("%s%d:%s", balanceKeyPrefix, userID, assetCode)
}

// Get returns the cached balance and whether the lookup hit.
func (c *BalanceCache) Get(ctx context.Context, userID int64, assetCode string) (decimal.Decimal, bool) {
	raw, err := c.client.Get(ctx, balanceKey(userID, assetCode)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return balance, true
}

// Set stores a committed balance, best effort.
func (c *BalanceCache) Set(ctx context.Context, userID int64, assetCode string, balance decimal.Decimal) {
	c.client.Set(ctx, balanceKey(userID, assetCode), balance.String(), c.ttl)
}

// Invalidate drops the cached balance after a movement commits.
func (c *BalanceCache) Invalidate(ctx context.Context, userID int64, assetCode string) {
	c.client.Del(ctx, balanceKey(userID, assetCode))
}
