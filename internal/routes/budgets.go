package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dinoventures/moneymanager/internal/budget"
)

// RegisterBudgetRoutes wires monthly budget endpoints.
func RegisterBudgetRoutes(r fiber.Router, h *budget.Handler) {
	group := r.Group("/budgets")
	group.Post("/", h.Create)
	group.Get("/", h.List)
	group.Get("/:id", h.Get)
	group.Put("/:id", h.Update)
	group.Delete("/:id", h.Delete)
}
