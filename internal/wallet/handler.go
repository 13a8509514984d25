package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the wallet directory over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a wallet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	HolderName string `json:"holder_name"`
	Phone      string `json:"phone"`
}

// Create opens a wallet with a zero opening balance.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	w, err := h.service.Create(c.UserContext(), CreateInput{
		HolderName: req.HolderName,
		Phone:      req.Phone,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(walletJSON(w))
}

// Get returns the wallet's directory entry.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.service.Find(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(walletJSON(w))
}

// Balance returns the wallet's current balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"wallet_id": balance.WalletID,
		"balance":   balance.Amount,
		"as_of":     balance.AsOf,
	})
}

func walletJSON(w Wallet) fiber.Map {
	return fiber.Map{
		"id":          w.ID,
		"holder_name": w.HolderName,
		"phone":       w.Phone,
		"balance":     w.Balance,
		"status":      w.Status,
		"created_at":  w.CreatedAt,
	}
}
