package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kazi-pay/kazi_pay/internal/wallet"
)

// RegisterWalletRoutes wires the wallet directory endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets/:id", h.Get)
	r.Get("/wallets/:id/balance", h.Balance)
}
