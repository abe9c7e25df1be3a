package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/gastobot/gastobot/internal/config"
	"github.com/gastobot/gastobot/internal/engine"
	"github.com/gastobot/gastobot/internal/gateway"
	"github.com/gastobot/gastobot/internal/middleware"
	"github.com/gastobot/gastobot/internal/oracle"
	"github.com/gastobot/gastobot/internal/pending"
	"github.com/gastobot/gastobot/internal/rates"
	"github.com/gastobot/gastobot/internal/storage/sqlite"
	"github.com/gastobot/gastobot/internal/webhook"
	"github.com/gastobot/gastobot/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.Setup(cfg.LogLevel)

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "database", cfg.DatabasePath)

	wa := gateway.NewClient("", cfg.WhatsAppToken, cfg.WhatsAppPhoneID, 10*time.Second, log)

	var extractor oracle.Extractor
	if cfg.OracleEnabled {
		extractor = oracle.NewGemini("", cfg.OracleAPIKey, cfg.OracleModel, cfg.OracleTimeout, log)
		log.Info("model extraction enabled", "model", cfg.OracleModel, "threshold", cfg.OracleThreshold)
	} else {
		log.Info("model extraction disabled, deterministic parsers only")
	}

	eng := engine.New(
		store,
		wa,
		wa,
		extractor,
		pending.NewStore(cfg.ProposalTTL, cfg.SelectionTTL, cfg.PendingSweep),
		rates.New(cfg.RatesBaseURL, cfg.HomeCurrency, cfg.RatesTTL, 5*time.Second, log),
		engine.Config{
			OracleEnabled:   cfg.OracleEnabled,
			OracleThreshold: cfg.OracleThreshold,
			HomeCurrency:    cfg.HomeCurrency,
		},
		log,
	)

	handler := webhook.New(eng, gateway.NewDedup(cfg.DedupTTL), cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret, log)
	router := handler.Router(log, middleware.NewRateLimiter(cfg.RateLimitPerMinute))

	// h2c keeps the server reachable over HTTP/2 behind plain-text proxies.
	h2cHandler := h2c.NewHandler(router, &http2.Server{})

	log.Info("webhook server starting", "address", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, h2cHandler); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
