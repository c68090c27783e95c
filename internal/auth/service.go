package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/config"
	"github.com/dinoventures/moneymanager/internal/identity"
)

// Service issues and verifies JWT token pairs.
type Service struct {
	cfg   config.Config
	users identity.Repository
}

func NewService(cfg config.Config, users identity.Repository) *Service {
	return &Service{cfg: cfg, users: users}
}

// TokenPair is the result of a successful login or registration.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Issue signs a fresh access/refresh token pair for the user.
func (s *Service) Issue(user identity.User) (TokenPair, error) {
	access, err := s.sign(user.ID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	refresh, err := s.sign(user.ID, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Refresh verifies a refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.RefreshSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", 0, apperr.Unauthorized("invalid refresh token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return "", 0, apperr.Unauthorized("invalid refresh token")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", 0, apperr.Unauthorized("invalid refresh token")
	}
	if !user.Active {
		return "", 0, apperr.Unauthorized("account disabled")
	}

	access, err := s.sign(user.ID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, apperr.Internal(err)
	}
	return access, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

func (s *Service) sign(userID int64, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    s.cfg.AppName,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
