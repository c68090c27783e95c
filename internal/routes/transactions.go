package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dinoventures/moneymanager/internal/transactions"
)

// RegisterTransactionRoutes wires income/expense record endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *transactions.Handler) {
	group := r.Group("/transactions")
	group.Post("/", h.Create)
	group.Get("/", h.List)
	group.Get("/:id", h.Get)
	group.Put("/:id", h.Update)
	group.Delete("/:id", h.Delete)
}
