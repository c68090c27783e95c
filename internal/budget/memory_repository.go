package budget

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Budget
	byKey  map[string]int64
}

// NewMemoryRepository builds an in-memory budget store for testing and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[int64]Budget), byKey: make(map[string]int64)}
}

func budgetKey(userID int64, category, monthYear string) string {
	return fmt.Sprintf("%d|%s|%s", userID, category, monthYear)
}

func (r *memoryRepository) Create(_ context.Context, b Budget) (Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := budgetKey(b.UserID, b.Category, b.MonthYear)
	if _, exists := r.byKey[key]; exists {
		return Budget{}, apperr.Conflict("budget already exists for %s in %s", b.Category, b.MonthYear)
	}
	r.nextID++
	b.ID = r.nextID
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.byID[b.ID] = b
	r.byKey[key] = b.ID
	return b, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int64) (Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return Budget{}, apperr.NotFound("budget not found")
	}
	return b, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID int64) ([]Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Budget
	for _, b := range r.byID {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthYear != out[j].MonthYear {
			return out[i].MonthYear > out[j].MonthYear
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, b Budget) (Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[b.ID]
	if !ok {
		return Budget{}, apperr.NotFound("budget not found")
	}
	newKey := budgetKey(existing.UserID, b.Category, b.MonthYear)
	if id, taken := r.byKey[newKey]; taken && id != b.ID {
		return Budget{}, apperr.Conflict("budget already exists for %s in %s", b.Category, b.MonthYear)
	}
	delete(r.byKey, budgetKey(existing.UserID, existing.Category, existing.MonthYear))
	b.UserID = existing.UserID
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	r.byID[b.ID] = b
	r.byKey[newKey] = b.ID
	return b, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("budget not found")
	}
	delete(r.byID, id)
	delete(r.byKey, budgetKey(b.UserID, b.Category, b.MonthYear))
	return nil
}
