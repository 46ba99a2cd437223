package webhook

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ImeldaHope/Vertix/internal/adprovider"
	"github.com/ImeldaHope/Vertix/internal/counter"
	"github.com/ImeldaHope/Vertix/internal/ledger"
	"github.com/ImeldaHope/Vertix/internal/logging"
	"github.com/ImeldaHope/Vertix/internal/receipt"
	"github.com/ImeldaHope/Vertix/internal/rewards"
)

const testSecret = "ad-secret"

func setupApp(t *testing.T) (*fiber.App, ledger.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := ledger.NewInMemory()
	engine := rewards.NewEngine(
		counter.NewRedisStore(client),
		store,
		receipt.NewSigner("receipt-secret"),
		adprovider.StaticVerifier{},
		nil,
		rewards.AdPolicy{RewardAmount: 10, Cooldown: time.Minute, MaxPerDay: 100},
		logging.Discard(),
	)

	app := fiber.New()
	handler := NewHandler(engine, testSecret, logging.Discard())
	app.Post("/ads/callback", handler.Callback)
	return app, store
}

func postCallback(t *testing.T, app *fiber.App, body []byte, signature string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/ads/callback", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode, payload
}

func TestCallbackAcceptsSignedPayload(t *testing.T) {
	app, store := setupApp(t)

	body := []byte(`{"userId":"u1","rewardAmount":25,"providerId":"admob"}`)
	status, payload := postCallback(t, app, body, Sign([]byte(testSecret), body))

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, payload)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded["ok"] != true {
		t.Fatalf("expected ok response, got %v", decoded)
	}

	entries := ledger.Entries(store)
	if len(entries) != 1 || entries[0].Amount != 25 || entries[0].Kind != ledger.KindAdReward {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestCallbackRejectsTamperedBody(t *testing.T) {
	app, store := setupApp(t)

	original := []byte(`{"userId":"u1","rewardAmount":25,"providerId":"admob"}`)
	sig := Sign([]byte(testSecret), original)
	tampered := []byte(`{"userId":"u1","rewardAmount":9999,"providerId":"admob"}`)

	status, _ := postCallback(t, app, tampered, sig)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	if len(ledger.Entries(store)) != 0 {
		t.Fatal("tampered callback must not credit anything")
	}
}

func TestCallbackRejectsMissingSignature(t *testing.T) {
	app, _ := setupApp(t)

	body := []byte(`{"userId":"u1","rewardAmount":25,"providerId":"admob"}`)
	status, _ := postCallback(t, app, body, "")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestCallbackSingleGrantPerCooldownWindow(t *testing.T) {
	app, store := setupApp(t)

	body := []byte(`{"userId":"u1","rewardAmount":25,"providerId":"admob"}`)
	sig := Sign([]byte(testSecret), body)

	first, _ := postCallback(t, app, body, sig)
	if first != fiber.StatusOK {
		t.Fatalf("first callback: expected 200, got %d", first)
	}

	second, _ := postCallback(t, app, body, sig)
	if second != fiber.StatusTooManyRequests {
		t.Fatalf("replay within cooldown: expected 429, got %d", second)
	}

	if entries := ledger.Entries(store); len(entries) != 1 {
		t.Fatalf("expected exactly one credited grant, got %d", len(entries))
	}
}

func TestCallbackRejectsMalformedPayload(t *testing.T) {
	app, _ := setupApp(t)

	body := []byte(`{"rewardAmount":25}`)
	status, _ := postCallback(t, app, body, Sign([]byte(testSecret), body))
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
