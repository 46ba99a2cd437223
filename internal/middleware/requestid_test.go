package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/google/uuid"
)

func requestIDApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequestIDEchoesInboundID(t *testing.T) {
	app := requestIDApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, "client-abc-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := resp.Header.Get(requestIDHeader); got != "client-abc-123" {
		t.Fatalf("expected inbound id echoed, got %q", got)
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	app := requestIDApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	got := resp.Header.Get(requestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected a generated uuid, got %q", got)
	}
}

func TestRequestIDReplacesOversizedID(t *testing.T) {
	app := requestIDApp()

	oversized := strings.Repeat("x", maxRequestIDLen+1)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, oversized)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	got := resp.Header.Get(requestIDHeader)
	if got == oversized {
		t.Fatal("oversized inbound id must not be propagated")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected a replacement uuid, got %q", got)
	}
}
