package history

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the unified history endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a history handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type entryResponse struct {
	Type      string    `json:"type"`
	Reference string    `json:"reference"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	Date      time.Time `json:"date"`
}

// ByWallet returns the wallet's merged, paginated history.
func (h *Handler) ByWallet(c *fiber.Ctx) error {
	walletID := c.Params("id")
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 0)

	result, err := h.service.History(c.UserContext(), walletID, page, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	entries := make([]entryResponse, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, entryResponse{
			Type:      e.Type,
			Reference: e.Reference,
			Amount:    e.Amount,
			Status:    e.Status,
			Reason:    e.Reason,
			Date:      e.Date,
		})
	}

	return c.JSON(fiber.Map{
		"entries":           entries,
		"total":             result.Total,
		"page":              result.Page,
		"limit":             result.Limit,
		"total_pages":       result.TotalPages,
		"has_next_page":     result.HasNext,
		"has_previous_page": result.HasPrev,
	})
}
