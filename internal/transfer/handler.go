package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kazi-pay/kazi_pay/internal/mpesa"
	"github.com/kazi-pay/kazi_pay/internal/transaction"
	"github.com/kazi-pay/kazi_pay/internal/wallet"
)

// Handler exposes the transfer orchestration endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type walletTransferRequest struct {
	SenderWalletID    string `json:"sender_wallet_id"`
	RecipientWalletID string `json:"recipient_wallet_id"`
	Amount            int64  `json:"amount"`
	Description       string `json:"description"`
}

type collectionRequest struct {
	WalletID string `json:"wallet_id"`
	Phone    string `json:"phone"`
	Amount   int64  `json:"amount"`
}

type confirmationRequest struct {
	WalletID         string `json:"wallet_id"`
	Amount           int64  `json:"amount"`
	GatewayReference string `json:"gateway_reference"`
}

type withdrawalRequest struct {
	WalletID    string `json:"wallet_id"`
	Phone       string `json:"phone"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type advanceRequest struct {
	WalletID  string `json:"wallet_id"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

// WalletToWallet processes an internal transfer between two wallets.
func (h *Handler) WalletToWallet(c *fiber.Ctx) error {
	var req walletTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.WalletToWallet(c.UserContext(), WalletTransferInput{
		SenderWalletID:    req.SenderWalletID,
		RecipientWalletID: req.RecipientWalletID,
		Amount:            req.Amount,
		Description:       req.Description,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"reference":         res.Reference,
		"sender_balance":    res.SenderBalance,
		"recipient_balance": res.RecipientBalance,
		"completed_at":      res.CompletedAt,
	})
}

// Collect initiates a mobile-money collection into a wallet.
func (h *Handler) Collect(c *fiber.Ctx) error {
	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	ack, err := h.service.MpesaToWallet(c.UserContext(), CollectionInput{
		WalletID: req.WalletID,
		Phone:    req.Phone,
		Amount:   req.Amount,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"gateway_reference": ack.Reference,
		"status":            ack.Status,
		"description":       ack.Description,
	})
}

// Confirm handles the gateway's collection confirmation callback.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	var req confirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.ConfirmCollection(c.UserContext(), ConfirmationInput{
		WalletID:         req.WalletID,
		Amount:           req.Amount,
		GatewayReference: req.GatewayReference,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"reference":         res.Reference,
		"recipient_balance": res.RecipientBalance,
		"completed_at":      res.CompletedAt,
	})
}

// Withdraw pays out wallet funds to mobile money.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.WalletToMpesa(c.UserContext(), WithdrawalInput{
		WalletID:    req.WalletID,
		Phone:       req.Phone,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"reference":      res.Reference,
		"sender_balance": res.SenderBalance,
		"completed_at":   res.CompletedAt,
	})
}

// Advance credits an approved payroll advance.
func (h *Handler) Advance(c *fiber.Ctx) error {
	var req advanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.AdvanceToWallet(c.UserContext(), AdvanceInput{
		WalletID:  req.WalletID,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"reference":         res.Reference,
		"recipient_balance": res.RecipientBalance,
		"completed_at":      res.CompletedAt,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, transaction.ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, wallet.ErrNotFound), errors.Is(err, transaction.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, mpesa.ErrGateway):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	case errors.Is(err, ErrReconciliation):
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
