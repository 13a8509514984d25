package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kazi-pay/kazi_pay/internal/transfer"
)

// RegisterTransferRoutes wires the money-moving orchestration endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler) {
	r.Post("/transfers/wallet", h.WalletToWallet)
	r.Post("/transfers/mpesa/collect", h.Collect)
	r.Post("/transfers/mpesa/confirm", h.Confirm)
	r.Post("/transfers/mpesa/withdraw", h.Withdraw)
	r.Post("/transfers/advance", h.Advance)
}
