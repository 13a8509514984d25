package transaction

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes transaction HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a transaction HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	WalletID          string `json:"wallet_id"`
	Type              string `json:"transaction_type"`
	Amount            int64  `json:"amount"`
	RecipientWalletID string `json:"recipient_wallet_id"`
	RecipientPhone    string `json:"recipient_phone"`
	Description       string `json:"description"`
}

type updateStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"admin_remarks"`
}

type transactionResponse struct {
	ID                string    `json:"id"`
	Reference         string    `json:"reference"`
	WalletID          string    `json:"wallet_id"`
	Type              string    `json:"transaction_type"`
	Amount            int64     `json:"amount"`
	Status            string    `json:"status"`
	RecipientWalletID string    `json:"recipient_wallet_id,omitempty"`
	RecipientPhone    string    `json:"recipient_phone,omitempty"`
	Description       string    `json:"description,omitempty"`
	AdminRemarks      string    `json:"admin_remarks,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Create records a new pending transaction.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.Create(c.UserContext(), CreateInput{
		WalletID:          req.WalletID,
		Type:              Type(req.Type),
		Amount:            req.Amount,
		RecipientWalletID: req.RecipientWalletID,
		RecipientPhone:    req.RecipientPhone,
		Description:       req.Description,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(tx))
}

// Get returns one transaction by internal identifier.
func (h *Handler) Get(c *fiber.Ctx) error {
	tx, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toResponse(tx))
}

// GetByReference returns one transaction by TRX reference.
func (h *Handler) GetByReference(c *fiber.Ctx) error {
	tx, err := h.service.GetByReference(c.UserContext(), c.Params("reference"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toResponse(tx))
}

// UpdateStatus applies a status transition with optional admin remarks.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), Status(req.Status), req.Remarks)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toResponse(tx))
}

// List returns a filtered, paginated slice of the transaction log.
func (h *Handler) List(c *fiber.Ctx) error {
	filter := Filter{
		WalletID:  c.Query("wallet_id"),
		Type:      Type(c.Query("transaction_type")),
		Status:    Status(c.Query("status")),
		MinAmount: int64(c.QueryInt("min_amount")),
		MaxAmount: int64(c.QueryInt("max_amount")),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", defaultPageLimit),
	}
	if v := c.Query("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "from must be RFC3339")
		}
		filter.From = ts
	}
	if v := c.Query("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "to must be RFC3339")
		}
		filter.To = ts
	}

	page, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return mapError(err)
	}

	records := make([]transactionResponse, 0, len(page.Records))
	for _, tx := range page.Records {
		records = append(records, toResponse(tx))
	}
	return c.JSON(fiber.Map{
		"records":           records,
		"total":             page.Total,
		"page":              page.Page,
		"limit":             page.Limit,
		"total_pages":       page.TotalPages,
		"has_next_page":     page.HasNext,
		"has_previous_page": page.HasPrev,
	})
}

// Statistics returns per-type roll-ups, optionally scoped to one wallet.
func (h *Handler) Statistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.UserContext(), c.Query("wallet_id"))
	if err != nil {
		return mapError(err)
	}

	payload := make([]fiber.Map, 0, len(stats))
	for _, stat := range stats {
		byStatus := make([]fiber.Map, 0, len(stat.ByStatus))
		for _, b := range stat.ByStatus {
			byStatus = append(byStatus, fiber.Map{
				"status":         string(b.Status),
				"count":          b.Count,
				"total_amount":   b.TotalAmount,
				"average_amount": b.AverageAmount,
			})
		}
		payload = append(payload, fiber.Map{
			"transaction_type": string(stat.Type),
			"count":            stat.Count,
			"total_amount":     stat.TotalAmount,
			"average_amount":   stat.AverageAmount,
			"by_status":        byStatus,
		})
	}
	return c.JSON(fiber.Map{"statistics": payload})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrDuplicateReference):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func toResponse(tx Transaction) transactionResponse {
	return transactionResponse{
		ID:                tx.ID,
		Reference:         tx.Reference,
		WalletID:          tx.WalletID,
		Type:              string(tx.Type),
		Amount:            tx.Amount,
		Status:            string(tx.Status),
		RecipientWalletID: tx.RecipientWalletID,
		RecipientPhone:    tx.RecipientPhone,
		Description:       tx.Description,
		AdminRemarks:      tx.AdminRemarks,
		CreatedAt:         tx.CreatedAt,
	}
}
