package asset

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
	byCode map[string]Asset
}

// NewMemoryRepository constructs an in-memory asset catalog for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byCode: make(map[string]Asset)}
}

func (r *memoryRepository) CreateIfAbsent(_ context.Context, a Asset) (Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byCode[a.Code]; ok {
		return existing, nil
	}
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now().UTC()
	r.byCode[a.Code] = a
	return a, nil
}

func (r *memoryRepository) FindByCode(_ context.Context, code string) (Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byCode[code]
	if !ok {
		return Asset{}, apperr.NotFound("asset not found: %s", code)
	}
	return a, nil
}

func (r *memoryRepository) FindActiveByCode(_ context.Context, code string) (Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byCode[code]
	if !ok || !a.Active {
		return Asset{}, apperr.NotFound("asset not found: %s", code)
	}
	return a, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	assets := make([]Asset, 0, len(r.byCode))
	for _, a := range r.byCode {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Code < assets[j].Code })
	return assets, nil
}
