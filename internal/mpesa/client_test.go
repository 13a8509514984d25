package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPGatewayCollection(t *testing.T) {
	var got collectionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(gatewayResponse{Reference: "MPE123", Status: StatusAccepted, Description: "ok"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "600100", "secret", 5*time.Second)
	ack, err := gw.InitiateCollection(context.Background(), "254712345678", 2_500, "TRX0000000000001")
	if err != nil {
		t.Fatalf("collection: %v", err)
	}

	if ack.Reference != "MPE123" || ack.Status != StatusAccepted {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if got.Phone != "254712345678" || got.Amount != 2_500 || got.Shortcode != "600100" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
}

func TestHTTPGatewayRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "600100", "secret", 5*time.Second)
	_, err := gw.InitiateDisbursement(context.Background(), "254712345678", 1_000, "salary advance")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestHTTPGatewayUnreachable(t *testing.T) {
	gw := NewHTTPGateway("http://127.0.0.1:1", "600100", "secret", time.Second)
	_, err := gw.InitiateCollection(context.Background(), "254712345678", 100, "TRX0000000000002")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}
