package transactions

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/middleware"
)

// Handler exposes transaction CRUD endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type transactionRequest struct {
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

type transactionResponse struct {
	ID          int64     `json:"id"`
	Type        Type      `json:"type"`
	Category    string    `json:"category"`
	Amount      string    `json:"amount"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toResponse(tx Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        tx.Type,
		Category:    tx.Category,
		Amount:      tx.Amount.StringFixed(2),
		Description: tx.Description,
		Date:        tx.OccurredOn.Format(time.DateOnly),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func parseRequest(c *fiber.Ctx) (Input, error) {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return Input{}, apperr.InvalidInput("malformed request body", nil)
	}
	var occurredOn time.Time
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			return Input{}, apperr.InvalidInput("invalid transaction", map[string]string{"date": "date must be YYYY-MM-DD"})
		}
		occurredOn = parsed
	}
	return Input{
		Type:        Type(req.Type),
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		OccurredOn:  occurredOn,
	}, nil
}

// Create handles POST /transactions.
func (h *Handler) Create(c *fiber.Ctx) error {
	in, err := parseRequest(c)
	if err != nil {
		return err
	}
	tx, err := h.svc.Create(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(tx))
}

// Get handles GET /transactions/:id.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperr.InvalidInput("invalid transaction id", nil)
	}
	tx, err := h.svc.Get(c.UserContext(), middleware.UserID(c), int64(id))
	if err != nil {
		return err
	}
	return c.JSON(toResponse(tx))
}

// List handles GET /transactions?limit=&offset=&type=.
func (h *Handler) List(c *fiber.Ctx) error {
	page := Page{
		Limit:  c.QueryInt("limit", defaultPageLimit),
		Offset: c.QueryInt("offset", 0),
		Type:   Type(c.Query("type")),
	}
	txs, err := h.svc.List(c.UserContext(), middleware.UserID(c), page)
	if err != nil {
		return err
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	return c.JSON(out)
}

// Update handles PUT /transactions/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperr.InvalidInput("invalid transaction id", nil)
	}
	in, err := parseRequest(c)
	if err != nil {
		return err
	}
	tx, err := h.svc.Update(c.UserContext(), middleware.UserID(c), int64(id), in)
	if err != nil {
		return err
	}
	return c.JSON(toResponse(tx))
}

// Delete handles DELETE /transactions/:id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperr.InvalidInput("invalid transaction id", nil)
	}
	if err := h.svc.Delete(c.UserContext(), middleware.UserID(c), int64(id)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
