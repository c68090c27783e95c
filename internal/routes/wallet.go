package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dinoventures/moneymanager/internal/wallet"
)

// RegisterWalletRoutes wires the wallet movement and read endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	group := r.Group("/wallets")
	group.Post("/top-up", h.TopUp)
	group.Post("/bonus", h.Bonus)
	group.Post("/spend", h.Spend)
	group.Get("/balance/:assetCode", h.Balance)
	group.Get("/statement/:assetCode", h.Statement)
}
