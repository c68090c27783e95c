package budget

import (
	"context"
	"strings"
	"time"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

// Service manages per-category monthly spending budgets.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a new budget for the user.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (Budget, error) {
	if err := validate(in); err != nil {
		return Budget{}, err
	}
	return s.repo.Create(ctx, Budget{
		UserID:    userID,
		Category:  strings.TrimSpace(in.Category),
		MonthYear: in.MonthYear,
		Limit:     in.Limit,
	})
}

// Get returns one budget. Other users' budgets surface as not found.
func (s *Service) Get(ctx context.Context, userID, id int64) (Budget, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Budget{}, err
	}
	if b.UserID != userID {
		return Budget{}, apperr.NotFound("budget not found")
	}
	return b, nil
}

// List returns the user's budgets, newest month first.
func (s *Service) List(ctx context.Context, userID int64) ([]Budget, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update replaces the mutable fields of an owned budget.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (Budget, error) {
	if err := validate(in); err != nil {
		return Budget{}, err
	}
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return Budget{}, err
	}
	existing.Category = strings.TrimSpace(in.Category)
	existing.MonthYear = in.MonthYear
	existing.Limit = in.Limit
	return s.repo.Update(ctx, existing)
}

// Delete removes an owned budget.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func validate(in Input) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Category) == "" {
		fields["category"] = "category is required"
	}
	if _, err := time.Parse("2006-01", in.MonthYear); err != nil {
		fields["monthYear"] = "monthYear must be YYYY-MM"
	}
	if !in.Limit.IsPositive() {
		fields["limit"] = "limit must be greater than zero"
	} else if !in.Limit.Equal(in.Limit.Truncate(2)) {
		fields["limit"] = "limit must have at most 2 decimal places"
	}
	if len(fields) > 0 {
		return apperr.InvalidInput("invalid budget", fields)
	}
	return nil
}
