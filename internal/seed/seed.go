package seed

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/asset"
	"github.com/dinoventures/moneymanager/internal/identity"
	"github.com/dinoventures/moneymanager/internal/wallet"
)

// poolSeed is the opening balance a system pool wallet receives the first
// time it is created. Re-running the seeder never resets an existing balance.
type poolSeed struct {
	systemID string
	balance  decimal.Decimal
}

var (
	defaultAssets = []asset.Asset{
		{Code: "GOLD_COINS", Name: "Gold Coins", Description: "Primary in-app currency", Active: true},
		{Code: "LOYALTY_POINTS", Name: "Loyalty Points", Description: "Earned through activity and promotions", Active: true},
		{Code: "CREDIT_TOKENS", Name: "Credit Tokens", Description: "Prepaid spending credit", Active: true},
	}

	poolSeeds = []poolSeed{
		{systemID: wallet.SystemTreasury, balance: decimal.RequireFromString("1000000.00")},
		{systemID: wallet.SystemBonusPool, balance: decimal.RequireFromString("500000.00")},
	}
)

// Seeder provisions the reference data the engine depends on: the asset
// catalog, funded system pool wallets and a zero-balance wallet per user
// and active asset.
type Seeder struct {
	assets  asset.Repository
	wallets wallet.Repository
	users   identity.Repository
	logger  *slog.Logger
}

func New(assets asset.Repository, wallets wallet.Repository, users identity.Repository, logger *slog.Logger) *Seeder {
	return &Seeder{assets: assets, wallets: wallets, users: users, logger: logger}
}

// Run executes the full bootstrap. It is idempotent: every step creates only
// what is missing and leaves existing rows, balances included, untouched.
func (s *Seeder) Run(ctx context.Context) error {
	created, err := s.ensureAssets(ctx)
	if err != nil {
		return err
	}
	if err := s.ensurePoolWallets(ctx, created); err != nil {
		return err
	}
	if err := s.ensureUserWallets(ctx, created); err != nil {
		return err
	}
	s.logger.Info("bootstrap complete", "assets", len(created))
	return nil
}

func (s *Seeder) ensureAssets(ctx context.Context) ([]asset.Asset, error) {
	out := make([]asset.Asset, 0, len(defaultAssets))
	for _, a := range defaultAssets {
		ensured, err := s.assets.CreateIfAbsent(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, ensured)
	}
	return out, nil
}

func (s *Seeder) ensurePoolWallets(ctx context.Context, assets []asset.Asset) error {
	for _, a := range assets {
		for _, pool := range poolSeeds {
			w, err := s.wallets.CreateIfAbsent(ctx, wallet.Wallet{
				SystemWalletID: pool.systemID,
				AssetID:        a.ID,
				Balance:        pool.balance,
			})
			if err != nil {
				return err
			}
			s.logger.Info("system pool ready",
				"system_wallet_id", pool.systemID, "asset_code", a.Code, "balance", w.Balance.String())
		}
	}
	return nil
}

func (s *Seeder) ensureUserWallets(ctx context.Context, assets []asset.Asset) error {
	users, err := s.users.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		for _, a := range assets {
			if !a.Active {
				continue
			}
			if _, err := s.wallets.CreateIfAbsent(ctx, wallet.Wallet{
				UserID:  u.ID,
				AssetID: a.ID,
				Balance: decimal.Zero,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
