package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/asset"
	"github.com/dinoventures/moneymanager/internal/ledger"
	"github.com/dinoventures/moneymanager/internal/notification"
)

// Service is the wallet engine: the sole orchestrator of the four wallet
// operations. Every movement runs as one atomic unit of work inside the
// ledger backend; the engine resolves assets and wallets, applies the
// idempotency protocol, and shapes results.
type Service struct {
	assets   asset.Repository
	wallets  Repository
	ledger   ledger.Ledger
	cache    *BalanceCache
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds a wallet engine. cache and notifier may be nil.
func NewService(assets asset.Repository, wallets Repository, led ledger.Ledger, cache *BalanceCache, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{assets: assets, wallets: wallets, ledger: led, cache: cache, notifier: notifier, logger: logger}
}

// MovementInput carries the caller-supplied parameters of one movement.
type MovementInput struct {
	UserID         int64
	AssetCode      string
	Amount         decimal.Decimal
	IdempotencyKey string
	Description    string
}

// MovementResult is the snapshot returned for a completed (or replayed) movement.
type MovementResult struct {
	TransactionID    int64
	IdempotencyKey   string
	Amount           decimal.Decimal
	Kind             ledger.Kind
	CreditWalletID   int64
	DebitWalletID    int64
	NewCreditBalance decimal.Decimal
	NewDebitBalance  decimal.Decimal
	CreatedAt        time.Time
}

// BalanceInfo is the read-only balance view for one user wallet.
type BalanceInfo struct {
	AssetCode string
	AssetName string
	Balance   decimal.Decimal
}

// TopUp moves amount from the TREASURY pool into the user's wallet.
func (s *Service) TopUp(ctx context.Context, in MovementInput) (MovementResult, error) {
	return s.creditFromPool(ctx, in, SystemTreasury, ledger.KindTopUp)
}

// Bonus moves amount from the BONUS_POOL into the user's wallet.
func (s *Service) Bonus(ctx context.Context, in MovementInput) (MovementResult, error) {
	return s.creditFromPool(ctx, in, SystemBonusPool, ledger.KindBonus)
}

func (s *Service) creditFromPool(ctx context.Context, in MovementInput, pool string, kind ledger.Kind) (MovementResult, error) {
	if err := validateInput(in); err != nil {
		return MovementResult{}, err
	}

	if res, ok, err := s.replay(ctx, in, kind); err != nil || ok {
		return res, err
	}

	a, err := s.assets.FindActiveByCode(ctx, in.AssetCode)
	if err != nil {
		return MovementResult{}, err
	}
	userWallet, err := s.wallets.FindUserWallet(ctx, in.UserID, a.ID)
	if err != nil {
		return MovementResult{}, err
	}
	poolWallet, err := s.wallets.FindSystemWallet(ctx, pool, a.ID)
	if err != nil {
		return MovementResult{}, err
	}

	res, err := s.ledger.Move(ctx, ledger.MoveParams{
		DebitWalletID:  poolWallet.ID,
		CreditWalletID: userWallet.ID,
		Amount:         in.Amount,
		Kind:           kind,
		IdempotencyKey: in.IdempotencyKey,
		Description:    in.Description,
	})
	if err != nil {
		return MovementResult{}, err
	}

	s.afterMovement(ctx, in, res)
	return movementResult(res), nil
}

// Spend moves amount from the user's wallet into the TREASURY pool. The user
// balance is checked before the shared pool wallet is ever locked, so an
// unaffordable spend fails without contending on the hot pool row; the ledger
// re-checks under the locks.
func (s *Service) Spend(ctx context.Context, in MovementInput) (MovementResult, error) {
	if err := validateInput(in); err != nil {
		return MovementResult{}, err
	}

	if res, ok, err := s.replay(ctx, in, ledger.KindSpend); err != nil || ok {
		return res, err
	}

	a, err := s.assets.FindActiveByCode(ctx, in.AssetCode)
	if err != nil {
		return MovementResult{}, err
	}
	userWallet, err := s.wallets.FindUserWallet(ctx, in.UserID, a.ID)
	if err != nil {
		return MovementResult{}, err
	}
	if userWallet.Balance.LessThan(in.Amount) {
		return MovementResult{}, apperr.InsufficientBalance("insufficient balance", userWallet.Balance, in.Amount)
	}
	poolWallet, err := s.wallets.FindSystemWallet(ctx, SystemTreasury, a.ID)
	if err != nil {
		return MovementResult{}, err
	}

	res, err := s.ledger.Move(ctx, ledger.MoveParams{
		DebitWalletID:  userWallet.ID,
		CreditWalletID: poolWallet.ID,
		Amount:         in.Amount,
		Kind:           ledger.KindSpend,
		IdempotencyKey: in.IdempotencyKey,
		Description:    in.Description,
	})
	if err != nil {
		return MovementResult{}, err
	}

	s.afterMovement(ctx, in, res)
	return movementResult(res), nil
}

// Balance returns the user's balance for one asset. Reads go through the
// optional cache; movements invalidate it, so a hit is always a committed
// post-movement snapshot.
func (s *Service) Balance(ctx context.Context, userID int64, assetCode string) (BalanceInfo, error) {
	a, err := s.assets.FindActiveByCode(ctx, assetCode)
	if err != nil {
		return BalanceInfo{}, err
	}

	if s.cache != nil {
		if balance, ok := s.cache.Get(ctx, userID, assetCode); ok {
			return BalanceInfo{AssetCode: a.Code, AssetName: a.Name, Balance: balance}, nil
		}
	}

	w, err := s.wallets.FindUserWallet(ctx, userID, a.ID)
	if err != nil {
		return BalanceInfo{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, assetCode, w.Balance)
	}
	return BalanceInfo{AssetCode: a.Code, AssetName: a.Name, Balance: w.Balance}, nil
}

// Statement returns every ledger entry touching the user's wallet for one
// asset, newest first.
func (s *Service) Statement(ctx context.Context, userID int64, assetCode string) ([]ledger.Entry, error) {
	a, err := s.assets.FindActiveByCode(ctx, assetCode)
	if err != nil {
		return nil, err
	}
	w, err := s.wallets.FindUserWallet(ctx, userID, a.ID)
	if err != nil {
		return nil, err
	}
	return s.ledger.WalletEntries(ctx, w.ID)
}

// InitializeUserWallets provisions a zero-balance wallet per active asset for
// a newly onboarded user. Safe to call repeatedly.
func (s *Service) InitializeUserWallets(ctx context.Context, userID int64) error {
	assets, err := s.assets.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range assets {
		if !a.Active {
			continue
		}
		if _, err := s.wallets.CreateIfAbsent(ctx, Wallet{UserID: userID, AssetID: a.ID, Balance: decimal.Zero}); err != nil {
			return err
		}
		if s.logger != nil {
			s.logger.Info("user wallet ready", "user_id", userID, "asset_code", a.Code)
		}
	}
	return nil
}

// replay resolves the idempotency protocol: if the key was already recorded,
// the original result is returned and balances stay untouched. Matching is by
// key only; a differing payload is logged, never silently ignored.
func (s *Service) replay(ctx context.Context, in MovementInput, kind ledger.Kind) (MovementResult, bool, error) {
	prior, err := s.ledger.FindByIdempotencyKey(ctx, in.IdempotencyKey)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return MovementResult{}, false, nil
		}
		return MovementResult{}, false, err
	}

	if s.logger != nil {
		if !prior.Amount.Equal(in.Amount) || prior.Kind != kind {
			s.logger.Warn("idempotent replay with differing payload",
				"idempotency_key", in.IdempotencyKey,
				"recorded_amount", prior.Amount.String(), "requested_amount", in.Amount.String(),
				"recorded_kind", string(prior.Kind), "requested_kind", string(kind))
		} else {
			s.logger.Info("idempotent request detected, returning previous result", "idempotency_key", in.IdempotencyKey)
		}
	}

	debit, err := s.wallets.Get(ctx, prior.DebitWalletID)
	if err != nil {
		return MovementResult{}, false, err
	}
	credit, err := s.wallets.Get(ctx, prior.CreditWalletID)
	if err != nil {
		return MovementResult{}, false, err
	}
	return movementResult(ledger.MoveResult{
		Entry:         prior,
		DebitBalance:  debit.Balance,
		CreditBalance: credit.Balance,
		Replayed:      true,
	}), true, nil
}

func (s *Service) afterMovement(ctx context.Context, in MovementInput, res ledger.MoveResult) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, in.UserID, in.AssetCode)
	}
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindMovement,
			Destination: fmt.Sprintf("user:%d", in.UserID),
			Body:        fmt.Sprintf("%s of %s %s completed", res.Entry.Kind, in.Amount.StringFixed(2), in.AssetCode),
		})
	}
	if s.logger != nil {
		s.logger.Info("movement completed",
			"transaction_id", res.Entry.ID,
			"kind", string(res.Entry.Kind),
			"asset_code", in.AssetCode,
			"amount", in.Amount.String())
	}
}

func movementResult(res ledger.MoveResult) MovementResult {
	return MovementResult{
		TransactionID:    res.Entry.ID,
		IdempotencyKey:   res.Entry.IdempotencyKey,
		Amount:           res.Entry.Amount,
		Kind:             res.Entry.Kind,
		CreditWalletID:   res.Entry.CreditWalletID,
		DebitWalletID:    res.Entry.DebitWalletID,
		NewCreditBalance: res.CreditBalance,
		NewDebitBalance:  res.DebitBalance,
		CreatedAt:        res.Entry.CreatedAt,
	}
}

func validateInput(in MovementInput) error {
	fields := map[string]string{}
	if in.AssetCode == "" {
		fields["assetCode"] = "asset code is required"
	}
	if !in.Amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	} else if !in.Amount.Equal(in.Amount.Truncate(2)) {
		fields["amount"] = "amount must have at most 2 decimal places"
	}
	if in.IdempotencyKey == "" {
		fields["idempotencyKey"] = "idempotency key is required"
	}
	if len(fields) > 0 {
		return apperr.InvalidInput("invalid movement request", fields)
	}
	return nil
}
