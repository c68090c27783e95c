package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

// Kind classifies a double-entry movement. TRANSFER and REFUND are reserved
// for future operations and accepted as valid states, but no current operation
// produces them.
type Kind string

const (
	KindTopUp    Kind = "TOP_UP"
	KindBonus    Kind = "BONUS"
	KindSpend    Kind = "SPEND"
	KindTransfer Kind = "TRANSFER"
	KindRefund   Kind = "REFUND"
)

// Valid reports whether k is a known movement kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTopUp, KindBonus, KindSpend, KindTransfer, KindRefund:
		return true
	}
	return false
}

// Entry is one immutable double-entry ledger record: an equal debit from one
// wallet and credit to another.
type Entry struct {
	ID             int64
	DebitWalletID  int64
	CreditWalletID int64
	Amount         decimal.Decimal
	Kind           Kind
	IdempotencyKey string
	Description    string
	CreatedAt      time.Time
}

// MoveParams describes one requested movement between two wallets.
type MoveParams struct {
	DebitWalletID  int64
	CreditWalletID int64
	Amount         decimal.Decimal
	Kind           Kind
	IdempotencyKey string
	Description    string
}

// MoveResult is the outcome of a movement: the appended (or replayed) entry
// plus the balances of both wallets after the movement committed.
type MoveResult struct {
	Entry         Entry
	DebitBalance  decimal.Decimal
	CreditBalance decimal.Decimal

	// Replayed is true when the idempotency key matched a prior entry and no
	// balances were touched.
	Replayed bool
}

// validateMove re-checks the invariants every backend must hold, whatever the
// caller did: positive two-decimal amount, known kind, distinct wallets, and a
// present idempotency key.
func validateMove(p MoveParams) error {
	fields := map[string]string{}
	if !p.Amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	}
	if !p.Amount.Equal(p.Amount.Truncate(2)) {
		fields["amount"] = "amount must have at most 2 decimal places"
	}
	if !p.Kind.Valid() {
		fields["kind"] = "unknown movement kind"
	}
	if p.IdempotencyKey == "" {
		fields["idempotencyKey"] = "idempotency key is required"
	}
	if p.DebitWalletID == p.CreditWalletID {
		fields["walletId"] = "debit and credit wallets must differ"
	}
	if len(fields) > 0 {
		return apperr.InvalidInput("invalid movement", fields)
	}
	return nil
}

// Ledger is the append-only movement store. Move executes one movement as an
// atomic unit: idempotency check, exclusive acquisition of both wallets in
// ascending id order, debit-side balance validation, balance mutation and
// entry append all succeed or none do. Two concurrent submissions of the same
// idempotency key yield exactly one entry; the loser receives the winner's
// result with Replayed set.
type Ledger interface {
	Move(ctx context.Context, p MoveParams) (MoveResult, error)
	FindByIdempotencyKey(ctx context.Context, key string) (Entry, error)
	WalletEntries(ctx context.Context, walletID int64) ([]Entry, error)
}
