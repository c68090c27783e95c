package budget

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/middleware"
)

// Handler exposes budget CRUD endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type budgetRequest struct {
	Category  string          `json:"category"`
	MonthYear string          `json:"monthYear"`
	Limit     decimal.Decimal `json:"limit"`
}

type budgetResponse struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	MonthYear string    `json:"monthYear"`
	Limit     string    `json:"limit"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(b Budget) budgetResponse {
	return budgetResponse{
		ID:        b.ID,
		Category:  b.Category,
		MonthYear: b.MonthYear,
		Limit:     b.Limit.StringFixed(2),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// Create handles POST /budgets.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req budgetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidInput("malformed request body", nil)
	}
	b, err := h.svc.Create(c.UserContext(), middleware.UserID(c), Input{
		Category:  req.Category,
		MonthYear: req.MonthYear,
		Limit:     req.Limit,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(b))
}

// Get handles GET /budgets/:id.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperr.InvalidInput("invalid budget id", nil)
	}
	b, err := h.svc.Get(c.UserContext(), middleware.UserID(c), int64(id))
	if err != nil {
		return err
	}
	return c.JSON(toResponse(b))
}

// List handles GET /budgets.
func (h *Handler) List(c *fiber.Ctx) error {
	budgets, err := h.svc.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toResponse(b))
	}
	return c.JSON(out)
}

// Update handles PUT /budgets/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperr.InvalidInput("invalid budget id", nil)
	}
	var req budgetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidInput("malformed request body", nil)
	}
	b, err := h.svc.Update(c.UserContext(), middleware.UserID(c), int64(id), Input{
		Category:  req.Category,
		MonthYear: req.MonthYear,
		Limit:     req.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(toResponse(b))
}

// Delete handles DELETE /budgets/:id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperr.InvalidInput("invalid budget id", nil)
	}
	if err := h.svc.Delete(c.UserContext(), middleware.UserID(c), int64(id)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
