// Package webhook exposes the HTTP surface the WhatsApp Cloud API calls:
// the GET verification handshake and the POST message delivery endpoint.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gastobot/gastobot/internal/engine"
	"github.com/gastobot/gastobot/internal/gateway"
	"github.com/gastobot/gastobot/internal/middleware"
)

// Handler serves the webhook endpoints.
type Handler struct {
	engine      *engine.Engine
	dedup       *gateway.Dedup
	verifyToken string
	appSecret   string
	log         *slog.Logger
}

// New builds the webhook handler. appSecret may be empty in development,
// which disables signature checks.
func New(eng *engine.Engine, dedup *gateway.Dedup, verifyToken, appSecret string, log *slog.Logger) *Handler {
	return &Handler{
		engine:      eng,
		dedup:       dedup,
		verifyToken: verifyToken,
		appSecret:   appSecret,
		log:         log,
	}
}

// Router assembles the full HTTP surface.
func (h *Handler) Router(log *slog.Logger, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/webhook", h.verify)
		r.Post("/webhook", h.receive)
	})
	return r
}

// verify answers the Cloud API subscription handshake.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "verification failed", http.StatusForbidden)
}

// receive handles a message delivery. The Cloud API retries on non-2xx, so
// handler errors are logged and acknowledged rather than surfaced: a message
// our pipeline cannot process will not improve on redelivery.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !h.verifySignature(r.Header.Get("X-Hub-Signature-256"), body) {
		h.log.Warn("webhook signature mismatch", "remote_addr", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload gateway.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	for _, msg := range payload.Messages() {
		if h.dedup.Seen(msg.ID) {
			h.log.Debug("duplicate message skipped", "id", msg.ID)
			continue
		}
		if err := h.engine.HandleMessage(r.Context(), msg); err != nil {
			h.log.Error("failed to handle message", "id", msg.ID, "error", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// verifySignature checks the X-Hub-Signature-256 HMAC in constant time.
func (h *Handler) verifySignature(header string, body []byte) bool {
	if h.appSecret == "" {
		return true
	}
	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header[len(prefix):]))
}
