package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/config"
	"github.com/dinoventures/moneymanager/internal/identity"
)

func testConfig() config.Config {
	return config.Config{
		AppName:         "MoneyManager",
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func registerUser(t *testing.T, users identity.Repository) identity.User {
	t.Helper()
	user, err := identity.NewService(users).Register(context.Background(), identity.Registration{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

func TestIssueProducesVerifiableTokens(t *testing.T) {
	users := identity.NewMemoryRepository()
	user := registerUser(t, users)
	svc := NewService(testConfig(), users)

	pair, err := svc.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, int64(900), pair.ExpiresIn)

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(pair.AccessToken, claims, func(t *jwt.Token) (any, error) {
		return []byte("access-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, strconv.FormatInt(user.ID, 10), claims.Subject)
	require.Equal(t, "MoneyManager", claims.Issuer)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	users := identity.NewMemoryRepository()
	user := registerUser(t, users)
	svc := NewService(testConfig(), users)

	pair, err := svc.Issue(user)
	require.NoError(t, err)

	access, expiresIn, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.Equal(t, int64(900), expiresIn)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	users := identity.NewMemoryRepository()
	user := registerUser(t, users)
	svc := NewService(testConfig(), users)

	pair, err := svc.Issue(user)
	require.NoError(t, err)

	// An access token is signed with the wrong secret for refreshing.
	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.True(t, apperr.Is(err, apperr.CodeUnauthorized), "got %v", err)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := NewService(testConfig(), identity.NewMemoryRepository())

	_, _, err := svc.Refresh(context.Background(), "not-a-token")
	require.True(t, apperr.Is(err, apperr.CodeUnauthorized))
}

func TestRefreshRejectsUnknownUser(t *testing.T) {
	users := identity.NewMemoryRepository()
	svc := NewService(testConfig(), users)

	pair, err := svc.Issue(identity.User{ID: 999, Active: true})
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.True(t, apperr.Is(err, apperr.CodeUnauthorized))
}
