package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedPair(t *testing.T, r *MemoryRepository) (Wallet, Wallet) {
	t.Helper()
	ctx := context.Background()
	user, err := r.CreateIfAbsent(ctx, Wallet{UserID: 1, AssetID: 1, Balance: dec("100.00")})
	require.NoError(t, err)
	pool, err := r.CreateIfAbsent(ctx, Wallet{SystemWalletID: SystemTreasury, AssetID: 1, Balance: dec("100.00")})
	require.NoError(t, err)
	return user, pool
}

func TestCreateIfAbsentReturnsExistingWallet(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	first, _ := seedPair(t, r)
	again, err := r.CreateIfAbsent(ctx, Wallet{UserID: 1, AssetID: 1, Balance: dec("999.00")})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.True(t, again.Balance.Equal(dec("100.00")), "existing balance must not be overwritten")
}

// A movement holds both wallet mutexes and then consults the store index; a
// concurrent re-create of an existing wallet must never wedge that path by
// waiting on a wallet mutex while holding the store lock.
func TestCreateIfAbsentDoesNotBlockInFlightMovement(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	user, pool := seedPair(t, r)

	unlock, err := r.LockWallets(user.ID, pool.ID)
	require.NoError(t, err)

	recreated := make(chan Wallet, 1)
	recreateErr := make(chan error, 1)
	go func() {
		w, err := r.CreateIfAbsent(ctx, Wallet{UserID: 1, AssetID: 1, Balance: decimal.Zero})
		recreateErr <- err
		recreated <- w
	}()

	// Give the re-create a chance to grab the store lock first.
	time.Sleep(20 * time.Millisecond)

	moved := make(chan error, 1)
	go func() {
		_, _, err := r.ApplyMoveLocked(user.ID, pool.ID, dec("10.00"))
		moved <- err
	}()

	select {
	case err := <-moved:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ApplyMoveLocked blocked behind a concurrent CreateIfAbsent")
	}
	unlock()

	select {
	case err := <-recreateErr:
		require.NoError(t, err)
		w := <-recreated
		require.Equal(t, user.ID, w.ID)
		require.True(t, w.Balance.Equal(dec("90.00")))
	case <-time.After(2 * time.Second):
		t.Fatal("CreateIfAbsent never completed")
	}
}
