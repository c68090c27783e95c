package auth

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/identity"
	"github.com/dinoventures/moneymanager/internal/wallet"
)

// Handler exposes register/login/refresh endpoints.
type Handler struct {
	ids     *identity.Service
	svc     *Service
	wallets *wallet.Service
	logger  *slog.Logger
}

func NewHandler(ids *identity.Service, svc *Service, wallets *wallet.Service, logger *slog.Logger) *Handler {
	return &Handler{ids: ids, svc: svc, wallets: wallets, logger: logger}
}

type registerRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type authResponse struct {
	UserID       int64  `json:"userId"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Register creates an account, provisions its wallets and returns a token pair.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidInput("malformed request body", nil)
	}
	user, err := h.ids.Register(c.UserContext(), identity.Registration{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}

	// A registration failure after this point leaves the user without wallets;
	// InitializeUserWallets is idempotent and the seeder repairs it on restart.
	if err := h.wallets.InitializeUserWallets(c.UserContext(), user.ID); err != nil {
		h.logger.Error("wallet provisioning failed", "user_id", user.ID, "error", err)
		return err
	}

	pair, err := h.svc.Issue(user)
	if err != nil {
		return err
	}
	h.logger.Info("user registered", "user_id", user.ID)
	return c.Status(http.StatusCreated).JSON(authResponse{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login validates credentials and returns a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidInput("malformed request body", nil)
	}
	user, err := h.ids.Authenticate(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	pair, err := h.svc.Issue(user)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(authResponse{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh issues a new access token using a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidInput("malformed request body", nil)
	}
	token, exp, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"accessToken": token, "expiresIn": exp})
}
