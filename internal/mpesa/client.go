package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPGateway talks to a Daraja-style mobile-money REST API.
type HTTPGateway struct {
	baseURL   string
	shortcode string
	apiKey    string
	client    *http.Client
}

// NewHTTPGateway configures a gateway client for the given API endpoint.
func NewHTTPGateway(baseURL, shortcode, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGateway{
		baseURL:   baseURL,
		shortcode: shortcode,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type collectionRequest struct {
	Shortcode        string `json:"shortcode"`
	Phone            string `json:"phone"`
	Amount           int64  `json:"amount"`
	AccountReference string `json:"account_reference"`
}

type disbursementRequest struct {
	Shortcode string `json:"shortcode"`
	Phone     string `json:"phone"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

type gatewayResponse struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// InitiateCollection requests an STK-style collection from the subscriber.
func (g *HTTPGateway) InitiateCollection(ctx context.Context, phone string, amount int64, reference string) (Ack, error) {
	return g.post(ctx, "/collections", collectionRequest{
		Shortcode:        g.shortcode,
		Phone:            phone,
		Amount:           amount,
		AccountReference: reference,
	})
}

// InitiateDisbursement requests a B2C-style payout to the subscriber.
func (g *HTTPGateway) InitiateDisbursement(ctx context.Context, phone string, amount int64, reason string) (Ack, error) {
	return g.post(ctx, "/disbursements", disbursementRequest{
		Shortcode: g.shortcode,
		Phone:     phone,
		Amount:    amount,
		Reason:    reason,
	})
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload any) (Ack, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: encode request: %v", ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("%w: build request: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Ack{}, fmt.Errorf("%w: gateway returned %d", ErrGateway, resp.StatusCode)
	}

	var decoded gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Ack{}, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}

	return Ack{Reference: decoded.Reference, Status: decoded.Status, Description: decoded.Description}, nil
}
