package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

// BalanceStore gives the in-memory ledger exclusive access to wallet balances.
// LockWallets must hand out both wallet locks in ascending id order; the
// *Locked methods require those locks to be held.
type BalanceStore interface {
	LockWallets(a, b int64) (func(), error)
	BalanceLocked(id int64) (decimal.Decimal, error)
	ApplyMoveLocked(debitID, creditID int64, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error)
}

type inMemoryLedger struct {
	store BalanceStore

	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Entry
	byKey  map[string]int64
}

// NewInMemory creates a concurrency-safe in-memory ledger over the given
// balance store. Used by unit tests and dev mode.
func NewInMemory(store BalanceStore) Ledger {
	return &inMemoryLedger{
		store: store,
		byID:  make(map[int64]Entry),
		byKey: make(map[string]int64),
	}
}

func (l *inMemoryLedger) Move(_ context.Context, p MoveParams) (MoveResult, error) {
	if err := validateMove(p); err != nil {
		return MoveResult{}, err
	}

	// Fast path: the key already committed, nothing to lock exclusively.
	l.mu.RLock()
	id, seen := l.byKey[p.IdempotencyKey]
	prior := l.byID[id]
	l.mu.RUnlock()
	if seen {
		return l.replay(prior)
	}

	unlock, err := l.store.LockWallets(p.DebitWalletID, p.CreditWalletID)
	if err != nil {
		return MoveResult{}, err
	}
	defer unlock()

	// Re-check under the wallet locks: a concurrent submission with the same
	// key may have committed while we were waiting.
	l.mu.Lock()
	if id, seen := l.byKey[p.IdempotencyKey]; seen {
		prior := l.byID[id]
		l.mu.Unlock()
		return l.replayLocked(prior)
	}

	debitBalance, creditBalance, err := l.store.ApplyMoveLocked(p.DebitWalletID, p.CreditWalletID, p.Amount)
	if err != nil {
		l.mu.Unlock()
		return MoveResult{}, err
	}

	l.nextID++
	entry := Entry{
		ID:             l.nextID,
		DebitWalletID:  p.DebitWalletID,
		CreditWalletID: p.CreditWalletID,
		Amount:         p.Amount,
		Kind:           p.Kind,
		IdempotencyKey: p.IdempotencyKey,
		Description:    p.Description,
		CreatedAt:      time.Now().UTC(),
	}
	l.byID[entry.ID] = entry
	l.byKey[entry.IdempotencyKey] = entry.ID
	l.mu.Unlock()

	return MoveResult{Entry: entry, DebitBalance: debitBalance, CreditBalance: creditBalance}, nil
}

func (l *inMemoryLedger) FindByIdempotencyKey(_ context.Context, key string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byKey[key]
	if !ok {
		return Entry{}, apperr.NotFound("ledger entry not found")
	}
	return l.byID[id], nil
}

func (l *inMemoryLedger) WalletEntries(_ context.Context, walletID int64) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var entries []Entry
	for _, e := range l.byID {
		if e.DebitWalletID == walletID || e.CreditWalletID == walletID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// replay reconstructs the prior result, taking the wallet locks briefly for a
// consistent balance read.
func (l *inMemoryLedger) replay(prior Entry) (MoveResult, error) {
	unlock, err := l.store.LockWallets(prior.DebitWalletID, prior.CreditWalletID)
	if err != nil {
		return MoveResult{}, err
	}
	defer unlock()
	return l.replayLocked(prior)
}

func (l *inMemoryLedger) replayLocked(prior Entry) (MoveResult, error) {
	debit, err := l.store.BalanceLocked(prior.DebitWalletID)
	if err != nil {
		return MoveResult{}, err
	}
	credit, err := l.store.BalanceLocked(prior.CreditWalletID)
	if err != nil {
		return MoveResult{}, err
	}
	return MoveResult{Entry: prior, DebitBalance: debit, CreditBalance: credit, Replayed: true}, nil
}
