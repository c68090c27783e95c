package wallet

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/ledger"
	"github.com/dinoventures/moneymanager/internal/middleware"
)

// Handler exposes the wallet engine over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type movementRequest struct {
	AssetCode      string          `json:"assetCode"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Description    string          `json:"description"`
}

// Money fields are rendered with StringFixed(2) so clients always see two
// decimal places; decimal.Decimal marshals "150.00" as "150".
type movementResponse struct {
	TransactionID    int64     `json:"transactionId"`
	IdempotencyKey   string    `json:"idempotencyKey"`
	Amount           string    `json:"amount"`
	MovementKind     string    `json:"movementKind"`
	CreditWalletID   int64     `json:"creditWalletId"`
	DebitWalletID    int64     `json:"debitWalletId"`
	NewCreditBalance string    `json:"newCreditBalance"`
	NewDebitBalance  string    `json:"newDebitBalance"`
	CreatedAt        time.Time `json:"createdAt"`
}

type statementEntry struct {
	TransactionID  int64     `json:"transactionId"`
	DebitWalletID  int64     `json:"debitWalletId"`
	CreditWalletID int64     `json:"creditWalletId"`
	Amount         string    `json:"amount"`
	MovementKind   string    `json:"movementKind"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TopUp credits the caller's wallet from the treasury pool.
func (h *Handler) TopUp(c *fiber.Ctx) error {
	return h.movement(c, h.service.TopUp, http.StatusCreated)
}

// Bonus credits the caller's wallet from the bonus pool.
func (h *Handler) Bonus(c *fiber.Ctx) error {
	return h.movement(c, h.service.Bonus, http.StatusCreated)
}

// Spend debits the caller's wallet into the treasury pool.
func (h *Handler) Spend(c *fiber.Ctx) error {
	return h.movement(c, h.service.Spend, http.StatusOK)
}

func (h *Handler) movement(c *fiber.Ctx, op func(ctx context.Context, in MovementInput) (MovementResult, error), status int) error {
	var req movementRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidInput("malformed request body", map[string]string{"body": err.Error()})
	}

	res, err := op(c.UserContext(), MovementInput{
		UserID:         middleware.UserID(c),
		AssetCode:      req.AssetCode,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Description:    req.Description,
	})
	if err != nil {
		return err
	}

	return c.Status(status).JSON(movementResponse{
		TransactionID:    res.TransactionID,
		IdempotencyKey:   res.IdempotencyKey,
		Amount:           res.Amount.StringFixed(2),
		MovementKind:     string(res.Kind),
		CreditWalletID:   res.CreditWalletID,
		DebitWalletID:    res.DebitWalletID,
		NewCreditBalance: res.NewCreditBalance.StringFixed(2),
		NewDebitBalance:  res.NewDebitBalance.StringFixed(2),
		CreatedAt:        res.CreatedAt,
	})
}

// Balance returns the caller's balance for one asset.
func (h *Handler) Balance(c *fiber.Ctx) error {
	info, err := h.service.Balance(c.UserContext(), middleware.UserID(c), c.Params("assetCode"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"assetCode": info.AssetCode,
		"assetName": info.AssetName,
		"balance":   info.Balance.StringFixed(2),
	})
}

// Statement returns the caller's ledger entries for one asset, newest first.
func (h *Handler) Statement(c *fiber.Ctx) error {
	entries, err := h.service.Statement(c.UserContext(), middleware.UserID(c), c.Params("assetCode"))
	if err != nil {
		return err
	}
	out := make([]statementEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toStatementEntry(e))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func toStatementEntry(e ledger.Entry) statementEntry {
	return statementEntry{
		TransactionID:  e.ID,
		DebitWalletID:  e.DebitWalletID,
		CreditWalletID: e.CreditWalletID,
		Amount:         e.Amount.StringFixed(2),
		MovementKind:   string(e.Kind),
		Description:    e.Description,
		CreatedAt:      e.CreatedAt,
	}
}
