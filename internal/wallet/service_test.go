package wallet

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/asset"
	"github.com/dinoventures/moneymanager/internal/ledger"
	"github.com/dinoventures/moneymanager/internal/logging"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type engineFixture struct {
	svc      *Service
	wallets  *MemoryRepository
	userID   int64
	user     Wallet
	treasury Wallet
	bonus    Wallet
}

func newEngine(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()

	assets := asset.NewMemoryRepository()
	gold, err := assets.CreateIfAbsent(ctx, asset.Asset{Code: "GOLD_COINS", Name: "Gold Coins", Active: true})
	require.NoError(t, err)

	wallets := NewMemoryRepository()
	treasury, err := wallets.CreateIfAbsent(ctx, Wallet{SystemWalletID: SystemTreasury, AssetID: gold.ID, Balance: dec("1000.00")})
	require.NoError(t, err)
	bonus, err := wallets.CreateIfAbsent(ctx, Wallet{SystemWalletID: SystemBonusPool, AssetID: gold.ID, Balance: dec("500.00")})
	require.NoError(t, err)

	const userID = int64(7)
	user, err := wallets.CreateIfAbsent(ctx, Wallet{UserID: userID, AssetID: gold.ID, Balance: decimal.Zero})
	require.NoError(t, err)

	svc := NewService(assets, wallets, ledger.NewInMemory(wallets), nil, nil, logging.Discard())
	return &engineFixture{svc: svc, wallets: wallets, userID: userID, user: user, treasury: treasury, bonus: bonus}
}

func (f *engineFixture) balance(t *testing.T, walletID int64) decimal.Decimal {
	t.Helper()
	w, err := f.wallets.Get(context.Background(), walletID)
	require.NoError(t, err)
	return w.Balance
}

func TestTopUpMovesFromTreasury(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	res, err := f.svc.TopUp(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("120.00"), IdempotencyKey: "topup-1",
	})
	require.NoError(t, err)

	require.Equal(t, ledger.KindTopUp, res.Kind)
	require.Equal(t, f.treasury.ID, res.DebitWalletID)
	require.Equal(t, f.user.ID, res.CreditWalletID)
	require.True(t, res.NewCreditBalance.Equal(dec("120.00")), "credit balance %s", res.NewCreditBalance)
	require.True(t, res.NewDebitBalance.Equal(dec("880.00")), "debit balance %s", res.NewDebitBalance)
	require.True(t, f.balance(t, f.user.ID).Equal(dec("120.00")))
}

func TestBonusMovesFromBonusPool(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	res, err := f.svc.Bonus(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("25.00"), IdempotencyKey: "bonus-1",
	})
	require.NoError(t, err)

	require.Equal(t, ledger.KindBonus, res.Kind)
	require.Equal(t, f.bonus.ID, res.DebitWalletID)
	require.True(t, f.balance(t, f.bonus.ID).Equal(dec("475.00")))
	require.True(t, f.balance(t, f.treasury.ID).Equal(dec("1000.00")), "treasury must be untouched by bonuses")
}

func TestSpendRoundTrip(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	_, err := f.svc.TopUp(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("100.00"), IdempotencyKey: "topup-1",
	})
	require.NoError(t, err)

	res, err := f.svc.Spend(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("40.00"), IdempotencyKey: "spend-1",
	})
	require.NoError(t, err)

	require.Equal(t, ledger.KindSpend, res.Kind)
	require.Equal(t, f.user.ID, res.DebitWalletID)
	require.Equal(t, f.treasury.ID, res.CreditWalletID)
	require.True(t, res.NewDebitBalance.Equal(dec("60.00")))
	require.True(t, f.balance(t, f.treasury.ID).Equal(dec("940.00")))
}

func TestSpendInsufficientBalance(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	_, err := f.svc.Spend(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("10.00"), IdempotencyKey: "spend-broke",
	})
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.CodeInsufficientBalance))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.True(t, appErr.Available.Equal(decimal.Zero))
	require.True(t, appErr.Required.Equal(dec("10.00")))
	require.True(t, f.balance(t, f.treasury.ID).Equal(dec("1000.00")), "nothing may move on a failed spend")
}

func TestIdempotentReplayReturnsOriginalResult(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	in := MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("50.00"), IdempotencyKey: "once",
	}

	first, err := f.svc.TopUp(ctx, in)
	require.NoError(t, err)

	second, err := f.svc.TopUp(ctx, in)
	require.NoError(t, err)

	require.Equal(t, first.TransactionID, second.TransactionID)
	require.True(t, second.Amount.Equal(first.Amount))
	require.True(t, second.NewCreditBalance.Equal(dec("50.00")), "balances must not move twice")
	require.True(t, f.balance(t, f.user.ID).Equal(dec("50.00")))
}

func TestReplayMatchesOnKeyAlone(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	first, err := f.svc.TopUp(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("50.00"), IdempotencyKey: "shared-key",
	})
	require.NoError(t, err)

	// Same key, different amount: the recorded movement wins.
	second, err := f.svc.TopUp(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("999.00"), IdempotencyKey: "shared-key",
	})
	require.NoError(t, err)
	require.Equal(t, first.TransactionID, second.TransactionID)
	require.True(t, second.Amount.Equal(dec("50.00")))
	require.True(t, f.balance(t, f.user.ID).Equal(dec("50.00")))
}

func TestMovementValidation(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   MovementInput
	}{
		{"zero amount", MovementInput{UserID: f.userID, AssetCode: "GOLD_COINS", Amount: dec("0"), IdempotencyKey: "k"}},
		{"negative amount", MovementInput{UserID: f.userID, AssetCode: "GOLD_COINS", Amount: dec("-5.00"), IdempotencyKey: "k"}},
		{"three decimals", MovementInput{UserID: f.userID, AssetCode: "GOLD_COINS", Amount: dec("1.999"), IdempotencyKey: "k"}},
		{"missing key", MovementInput{UserID: f.userID, AssetCode: "GOLD_COINS", Amount: dec("1.00")}},
		{"missing asset", MovementInput{UserID: f.userID, Amount: dec("1.00"), IdempotencyKey: "k"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.TopUp(ctx, tc.in)
			require.True(t, apperr.Is(err, apperr.CodeInvalidInput), "got %v", err)
		})
	}
}

func TestTrailingZerosBeyondTwoDecimalsAccepted(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	// "10.500" carries scale 3 but no third significant decimal.
	res, err := f.svc.TopUp(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("10.500"), IdempotencyKey: "topup-zeros",
	})
	require.NoError(t, err)
	require.True(t, res.Amount.Equal(dec("10.50")))
	require.True(t, f.balance(t, f.user.ID).Equal(dec("10.50")))
}

func TestUnknownAssetIsNotFound(t *testing.T) {
	f := newEngine(t)

	_, err := f.svc.TopUp(context.Background(), MovementInput{
		UserID: f.userID, AssetCode: "PLATINUM",
		Amount: dec("1.00"), IdempotencyKey: "k",
	})
	require.True(t, apperr.Is(err, apperr.CodeNotFound), "got %v", err)
}

func TestBalanceAndStatement(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	for i, amount := range []string{"10.00", "20.00", "30.00"} {
		_, err := f.svc.TopUp(ctx, MovementInput{
			UserID: f.userID, AssetCode: "GOLD_COINS",
			Amount: dec(amount), IdempotencyKey: fmt.Sprintf("topup-%d", i),
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Spend(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("15.00"), IdempotencyKey: "spend-1",
	})
	require.NoError(t, err)

	info, err := f.svc.Balance(ctx, f.userID, "GOLD_COINS")
	require.NoError(t, err)
	require.Equal(t, "GOLD_COINS", info.AssetCode)
	require.True(t, info.Balance.Equal(dec("45.00")))

	entries, err := f.svc.Statement(ctx, f.userID, "GOLD_COINS")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Equal(t, ledger.KindSpend, entries[0].Kind, "statement must be newest first")
	for i := 1; i < len(entries); i++ {
		require.LessOrEqual(t, entries[i].ID, entries[i-1].ID)
	}
}

func TestInitializeUserWalletsIsIdempotent(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	const newUser = int64(42)

	require.NoError(t, f.svc.InitializeUserWallets(ctx, newUser))

	_, err := f.svc.TopUp(ctx, MovementInput{
		UserID: newUser, AssetCode: "GOLD_COINS",
		Amount: dec("5.00"), IdempotencyKey: "new-user-topup",
	})
	require.NoError(t, err)

	// Re-running provisioning must not reset the balance.
	require.NoError(t, f.svc.InitializeUserWallets(ctx, newUser))
	info, err := f.svc.Balance(ctx, newUser, "GOLD_COINS")
	require.NoError(t, err)
	require.True(t, info.Balance.Equal(dec("5.00")))
}

func TestConcurrentSpendsConserveTotal(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	_, err := f.svc.TopUp(ctx, MovementInput{
		UserID: f.userID, AssetCode: "GOLD_COINS",
		Amount: dec("100.00"), IdempotencyKey: "fund",
	})
	require.NoError(t, err)

	// 20 spends of 10.00 against a 100.00 balance: exactly 10 can succeed.
	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Spend(ctx, MovementInput{
				UserID: f.userID, AssetCode: "GOLD_COINS",
				Amount: dec("10.00"), IdempotencyKey: fmt.Sprintf("spend-%d", i),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, apperr.Is(err, apperr.CodeInsufficientBalance), "worker %d: unexpected error: %v", i, err)
	}

	require.Equal(t, 10, succeeded)
	require.True(t, f.balance(t, f.user.ID).Equal(decimal.Zero))

	total := f.balance(t, f.user.ID).Add(f.balance(t, f.treasury.ID)).Add(f.balance(t, f.bonus.ID))
	require.True(t, total.Equal(dec("1500.00")), "conservation violated, total=%s", total)
}
