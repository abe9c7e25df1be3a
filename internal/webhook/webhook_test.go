package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gastobot/gastobot/internal/engine"
	"github.com/gastobot/gastobot/internal/gateway"
	"github.com/gastobot/gastobot/internal/middleware"
	"github.com/gastobot/gastobot/internal/models"
	"github.com/gastobot/gastobot/internal/pending"
	"github.com/gastobot/gastobot/internal/rates"
	"github.com/gastobot/gastobot/internal/storage/sqlite"
)

const testSecret = "shh"

type fakeSender struct{ sent []string }

func (f *fakeSender) SendText(_ context.Context, to, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type fakeMedia struct{}

func (fakeMedia) Download(context.Context, string) ([]byte, string, error) {
	return nil, "", context.DeadlineExceeded
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newServer(t *testing.T) (*httptest.Server, *sqlite.SQLiteStore, *models.Group) {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	user := &models.Participant{Name: "Ana", Phone: "5491100000001", WelcomedAt: 1}
	if err := store.CreateParticipant(ctx, user); err != nil {
		t.Fatal(err)
	}
	group := &models.Group{Name: "Casa", Members: []string{user.ID}, CreatedBy: user.ID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatal(err)
	}

	eng := engine.New(store, &fakeSender{}, fakeMedia{}, nil,
		pending.NewStore(time.Minute, time.Minute, time.Minute),
		rates.New("http://127.0.0.1:1", "ARS", time.Minute, time.Second, testLogger()),
		engine.Config{HomeCurrency: "ARS", OracleThreshold: 0.7},
		testLogger())

	h := New(eng, gateway.NewDedup(time.Minute), "verify-me", testSecret, testLogger())
	srv := httptest.NewServer(h.Router(testLogger(), middleware.NewRateLimiter(100)))
	t.Cleanup(srv.Close)
	return srv, store, group
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func messagePayload(id, text string) []byte {
	return []byte(fmt.Sprintf(`{
		"entry": [{"changes": [{"value": {
			"contacts": [{"wa_id": "5491100000001", "profile": {"name": "Ana"}}],
			"messages": [{"id": %q, "from": "5491100000001", "type": "text", "text": {"body": %q}}]
		}}]}]
	}`, id, text))
}

func postMessage(t *testing.T, srv *httptest.Server, body []byte, signature string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/webhook", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestVerificationHandshake(t *testing.T) {
	srv, _, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "12345" {
		t.Errorf("challenge echo = %q", body)
	}

	bad, err := http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345")
	if err != nil {
		t.Fatal(err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusForbidden {
		t.Errorf("wrong token status = %d, want 403", bad.StatusCode)
	}
}

func TestReceiveStoresExpense(t *testing.T) {
	srv, store, group := newServer(t)

	body := messagePayload("wamid.1", "500 cena")
	resp := postMessage(t, srv, body, sign(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	expenses, err := store.ExpensesByGroup(context.Background(), group.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(expenses) != 1 {
		t.Fatalf("got %d expenses, want 1", len(expenses))
	}
	if expenses[0].Description != "cena" {
		t.Errorf("expense = %+v", expenses[0])
	}
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	srv, store, group := newServer(t)

	body := messagePayload("wamid.2", "500 cena")
	resp := postMessage(t, srv, body, "sha256=deadbeef")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp = postMessage(t, srv, body, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing signature status = %d, want 401", resp.StatusCode)
	}

	if expenses, _ := store.ExpensesByGroup(context.Background(), group.ID, 0); len(expenses) != 0 {
		t.Error("unsigned payload reached the engine")
	}
}

func TestReceiveDeduplicatesRedelivery(t *testing.T) {
	srv, store, group := newServer(t)

	body := messagePayload("wamid.3", "500 cena")
	postMessage(t, srv, body, sign(body))
	postMessage(t, srv, body, sign(body))

	expenses, err := store.ExpensesByGroup(context.Background(), group.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(expenses) != 1 {
		t.Errorf("redelivered message stored %d expenses, want 1", len(expenses))
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
