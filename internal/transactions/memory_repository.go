package transactions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Transaction
}

// NewMemoryRepository builds an in-memory transaction store for testing and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[int64]Transaction)}
}

func (r *memoryRepository) Create(_ context.Context, tx Transaction) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tx.ID = r.nextID
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.byID[tx.ID] = tx
	return tx, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int64) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.byID[id]
	if !ok {
		return Transaction{}, apperr.NotFound("transaction not found")
	}
	return tx, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID int64, page Page) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []Transaction
	for _, tx := range r.byID {
		if tx.UserID != userID {
			continue
		}
		if page.Type != "" && tx.Type != page.Type {
			continue
		}
		all = append(all, tx)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].OccurredOn.Equal(all[j].OccurredOn) {
			return all[i].OccurredOn.After(all[j].OccurredOn)
		}
		return all[i].ID > all[j].ID
	})
	if page.Offset >= len(all) {
		return nil, nil
	}
	all = all[page.Offset:]
	if page.Limit > 0 && page.Limit < len(all) {
		all = all[:page.Limit]
	}
	return all, nil
}

func (r *memoryRepository) Update(_ context.Context, tx Transaction) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[tx.ID]
	if !ok {
		return Transaction{}, apperr.NotFound("transaction not found")
	}
	tx.UserID = existing.UserID
	tx.CreatedAt = existing.CreatedAt
	tx.UpdatedAt = time.Now().UTC()
	r.byID[tx.ID] = tx
	return tx, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return apperr.NotFound("transaction not found")
	}
	delete(r.byID, id)
	return nil
}
