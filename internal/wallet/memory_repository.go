package wallet

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

type memWallet struct {
	mu sync.Mutex
	w  Wallet
}

// MemoryRepository is a concurrency-safe in-memory wallet store used by unit
// tests and dev mode. It doubles as the balance store for the in-memory
// ledger: per-wallet mutexes are handed out in ascending id order so opposite
// direction movements on the same pair can never deadlock.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*memWallet
	userIdx map[[2]int64]int64  // (userID, assetID) -> wallet id
	sysIdx  map[string]int64    // systemID + "/" + assetID -> wallet id
}

// NewMemoryRepository constructs an empty in-memory wallet store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[int64]*memWallet),
		userIdx: make(map[[2]int64]int64),
		sysIdx:  make(map[string]int64),
	}
}

func sysKey(systemID string, assetID int64) string {
	return systemID + "/" + strconv.FormatInt(assetID, 10)
}

// CreateIfAbsent inserts the wallet unless the (owner, asset) pair exists.
// The store lock is released before the existing row is read: taking a wallet
// mutex while holding the store lock would invert the lock order the ledger
// uses (wallet mutexes first, then the store lock for row lookups).
func (r *MemoryRepository) CreateIfAbsent(ctx context.Context, w Wallet) (Wallet, error) {
	r.mu.Lock()

	var existingID int64
	var exists bool
	if w.IsSystem() {
		existingID, exists = r.sysIdx[sysKey(w.SystemWalletID, w.AssetID)]
	} else {
		existingID, exists = r.userIdx[[2]int64{w.UserID, w.AssetID}]
	}
	if exists {
		r.mu.Unlock()
		return r.Get(ctx, existingID)
	}

	r.nextID++
	w.ID = r.nextID
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	r.byID[w.ID] = &memWallet{w: w}
	if w.IsSystem() {
		r.sysIdx[sysKey(w.SystemWalletID, w.AssetID)] = w.ID
	} else {
		r.userIdx[[2]int64{w.UserID, w.AssetID}] = w.ID
	}
	r.mu.Unlock()
	return w, nil
}

// Get fetches a committed wallet snapshot by id.
func (r *MemoryRepository) Get(_ context.Context, id int64) (Wallet, error) {
	r.mu.RLock()
	mw, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return Wallet{}, apperr.NotFound("wallet not found")
	}
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.w, nil
}

// FindUserWallet fetches the wallet owned by a user for one asset.
func (r *MemoryRepository) FindUserWallet(ctx context.Context, userID, assetID int64) (Wallet, error) {
	r.mu.RLock()
	id, ok := r.userIdx[[2]int64{userID, assetID}]
	r.mu.RUnlock()
	if !ok {
		return Wallet{}, apperr.NotFound("wallet not found")
	}
	return r.Get(ctx, id)
}

// FindSystemWallet fetches a system pool wallet for one asset.
func (r *MemoryRepository) FindSystemWallet(ctx context.Context, systemID string, assetID int64) (Wallet, error) {
	r.mu.RLock()
	id, ok := r.sysIdx[sysKey(systemID, assetID)]
	r.mu.RUnlock()
	if !ok {
		return Wallet{}, apperr.NotFound("wallet not found")
	}
	return r.Get(ctx, id)
}

// LockWallets acquires both wallet mutexes in ascending id order and returns
// the unlock function. The in-memory ledger holds these for the duration of a
// movement.
func (r *MemoryRepository) LockWallets(a, b int64) (func(), error) {
	r.mu.RLock()
	first, fok := r.byID[min64(a, b)]
	second, sok := r.byID[max64(a, b)]
	r.mu.RUnlock()
	if !fok || !sok {
		return nil, apperr.NotFound("wallet not found")
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}, nil
}

// BalanceLocked reads a wallet balance. Callers must hold the wallet lock via
// LockWallets.
func (r *MemoryRepository) BalanceLocked(id int64) (decimal.Decimal, error) {
	r.mu.RLock()
	mw, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return decimal.Zero, apperr.NotFound("wallet not found")
	}
	return mw.w.Balance, nil
}

// ApplyMoveLocked debits one wallet and credits the other, bumping each
// version counter. Callers must hold both wallet locks via LockWallets. The
// debit side is rejected if it cannot cover the amount, leaving both balances
// untouched.
func (r *MemoryRepository) ApplyMoveLocked(debitID, creditID int64, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.RLock()
	debit, dok := r.byID[debitID]
	credit, cok := r.byID[creditID]
	r.mu.RUnlock()
	if !dok || !cok {
		return decimal.Zero, decimal.Zero, apperr.NotFound("wallet not found")
	}

	if debit.w.Balance.LessThan(amount) {
		return decimal.Zero, decimal.Zero, apperr.InsufficientBalance("insufficient balance", debit.w.Balance, amount)
	}

	now := time.Now().UTC()
	debit.w.Balance = debit.w.Balance.Sub(amount)
	debit.w.Version++
	debit.w.UpdatedAt = now
	credit.w.Balance = credit.w.Balance.Add(amount)
	credit.w.Version++
	credit.w.UpdatedAt = now
	return debit.w.Balance, credit.w.Balance, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
