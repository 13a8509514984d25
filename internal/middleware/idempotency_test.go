package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kazi-pay/kazi_pay/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *atomic.Int32, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))

	var handled atomic.Int32
	app.Post("/transfers", func(c *fiber.Ctx) error {
		handled.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reference": "TRX0000000000042"})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, &handled, cleanup
}

func postTransfer(t *testing.T, app *fiber.App, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/transfers", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	rec.Body.Write(body)
	return rec
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	if rec := postTransfer(t, app, ""); rec.Code != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, rec.Code)
	}
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	app, handled, cleanup := setupTestApp(t)
	defer cleanup()

	first := postTransfer(t, app, "retry-me")
	if first.Code != fiber.StatusCreated {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := postTransfer(t, app, "retry-me")
	if second.Code != fiber.StatusCreated {
		t.Fatalf("replayed status = %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if got := handled.Load(); got != 1 {
		t.Fatalf("handler ran %d times, want 1", got)
	}
}

func TestIdempotencyDistinctKeysProcessSeparately(t *testing.T) {
	app, handled, cleanup := setupTestApp(t)
	defer cleanup()

	postTransfer(t, app, "key-a")
	postTransfer(t, app, "key-b")

	if got := handled.Load(); got != 2 {
		t.Fatalf("handler ran %d times, want 2", got)
	}
}

func TestIdempotencySkipsReads(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	app.Get("/transfers", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/transfers", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("GET without key should pass through, got %d", resp.StatusCode)
	}
}
