package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// System pool wallet identifiers. These act as the counterparty for value
// entering or leaving user wallets.
const (
	SystemTreasury  = "TREASURY"
	SystemBonusPool = "BONUS_POOL"
)

// Wallet holds the balance for one (owner, asset) pair. The owner is either a
// user (UserID > 0) or a named system pool (SystemWalletID != ""), never both.
type Wallet struct {
	ID             int64
	UserID         int64
	SystemWalletID string
	AssetID        int64
	Balance        decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsSystem reports whether the wallet belongs to a system pool.
func (w Wallet) IsSystem() bool { return w.SystemWalletID != "" }
