package identity

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

const minPasswordLength = 8

// Service manages the account lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new active user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	if err := validateRegistration(reg); err != nil {
		return User{}, err
	}

	email := normalizeEmail(reg.Email)
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, apperr.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperr.Internal(err)
	}

	return s.repo.Create(ctx, User{
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Email:        email,
		PasswordHash: hash,
		Active:       true,
	})
}

// Authenticate verifies credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		return User{}, apperr.Unauthorized("invalid email or password")
	}
	if !user.Active {
		return User{}, apperr.Unauthorized("account disabled")
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, apperr.Unauthorized("invalid email or password")
	}
	return user, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func validateRegistration(reg Registration) error {
	fields := map[string]string{}
	if normalizeEmail(reg.Email) == "" || !strings.Contains(reg.Email, "@") {
		fields["email"] = "a valid email is required"
	}
	if len(reg.Password) < minPasswordLength {
		fields["password"] = "password must be at least 8 characters"
	}
	if reg.Password != reg.ConfirmPassword {
		fields["confirmPassword"] = "passwords do not match"
	}
	if len(fields) > 0 {
		return apperr.InvalidInput("invalid registration", fields)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
