package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kazi-pay/kazi_pay/internal/history"
)

// RegisterHistoryRoutes wires the unified wallet history endpoint.
func RegisterHistoryRoutes(r fiber.Router, h *history.Handler) {
	r.Get("/wallets/:id/history", h.ByWallet)
}
