package transactions

import (
	"context"
	"strings"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Service manages user income and expense records.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a new transaction for the user.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (Transaction, error) {
	if err := validate(in); err != nil {
		return Transaction{}, err
	}
	return s.repo.Create(ctx, Transaction{
		UserID:      userID,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		OccurredOn:  in.OccurredOn,
	})
}

// Get returns one transaction. Other users' transactions surface as not found.
func (s *Service) Get(ctx context.Context, userID, id int64) (Transaction, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if tx.UserID != userID {
		return Transaction{}, apperr.NotFound("transaction not found")
	}
	return tx, nil
}

// List returns the user's transactions, newest first, optionally filtered by
// type.
func (s *Service) List(ctx context.Context, userID int64, page Page) ([]Transaction, error) {
	if page.Type != "" && !page.Type.Valid() {
		return nil, apperr.InvalidInput("invalid transaction filter", map[string]string{"type": "type must be INCOME or EXPENSE"})
	}
	if page.Limit <= 0 {
		page.Limit = defaultPageLimit
	}
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return s.repo.ListByUser(ctx, userID, page)
}

// Update replaces the mutable fields of an owned transaction.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (Transaction, error) {
	if err := validate(in); err != nil {
		return Transaction{}, err
	}
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return Transaction{}, err
	}
	existing.Type = in.Type
	existing.Category = strings.TrimSpace(in.Category)
	existing.Amount = in.Amount
	existing.Description = strings.TrimSpace(in.Description)
	existing.OccurredOn = in.OccurredOn
	return s.repo.Update(ctx, existing)
}

// Delete removes an owned transaction.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func validate(in Input) error {
	fields := map[string]string{}
	if !in.Type.Valid() {
		fields["type"] = "type must be INCOME or EXPENSE"
	}
	if strings.TrimSpace(in.Category) == "" {
		fields["category"] = "category is required"
	}
	if !in.Amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	} else if !in.Amount.Equal(in.Amount.Truncate(2)) {
		fields["amount"] = "amount must have at most 2 decimal places"
	}
	if in.OccurredOn.IsZero() {
		fields["date"] = "date is required"
	}
	if len(fields) > 0 {
		return apperr.InvalidInput("invalid transaction", fields)
	}
	return nil
}
