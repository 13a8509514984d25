package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kazi-pay/kazi_pay/internal/transaction"
)

// RegisterTransactionRoutes wires the transaction log endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *transaction.Handler) {
	r.Post("/transactions", h.Create)
	r.Get("/transactions", h.List)
	r.Get("/transactions/statistics", h.Statistics)
	r.Get("/transactions/reference/:reference", h.GetByReference)
	r.Get("/transactions/:id", h.Get)
	r.Patch("/transactions/:id/status", h.UpdateStatus)
}
