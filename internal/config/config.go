// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the server reads at startup.
type Config struct {
	// Addr is the host:port the HTTP server binds.
	Addr string
	// DatabasePath is the SQLite file location.
	DatabasePath string
	// LogLevel is debug, info, warn or error.
	LogLevel slog.Level

	// HomeCurrency is the ledger currency everything converts into.
	HomeCurrency string

	// WhatsApp Cloud API credentials.
	WhatsAppToken       string
	WhatsAppPhoneID     string
	WhatsAppVerifyToken string
	// WhatsAppAppSecret signs inbound webhook payloads.
	WhatsAppAppSecret string

	// Oracle (Gemini) settings.
	OracleEnabled   bool
	OracleAPIKey    string
	OracleModel     string
	OracleTimeout   time.Duration
	OracleThreshold float64

	// RatesBaseURL overrides the quote provider, mainly for tests.
	RatesBaseURL string
	RatesTTL     time.Duration

	// Conversation lifetimes.
	ProposalTTL  time.Duration
	SelectionTTL time.Duration
	PendingSweep time.Duration
	DedupTTL     time.Duration

	// RateLimitPerMinute bounds webhook requests per remote address.
	RateLimitPerMinute int
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present and ignored when absent.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:                getEnv("ADDR", ":8080"),
		DatabasePath:        getEnv("DATABASE_PATH", "data/gastobot.db"),
		LogLevel:            parseLevel(getEnv("LOG_LEVEL", "info")),
		HomeCurrency:        getEnv("HOME_CURRENCY", "ARS"),
		WhatsAppToken:       os.Getenv("WHATSAPP_TOKEN"),
		WhatsAppPhoneID:     os.Getenv("WHATSAPP_PHONE_ID"),
		WhatsAppVerifyToken: os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		WhatsAppAppSecret:   os.Getenv("WHATSAPP_APP_SECRET"),
		OracleAPIKey:        os.Getenv("GEMINI_API_KEY"),
		OracleModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OracleTimeout:       getDuration("ORACLE_TIMEOUT", 5*time.Second),
		OracleThreshold:     getFloat("ORACLE_CONFIDENCE_THRESHOLD", 0.7),
		RatesBaseURL:        os.Getenv("RATES_BASE_URL"),
		RatesTTL:            getDuration("RATES_TTL", 30*time.Minute),
		ProposalTTL:         getDuration("PROPOSAL_TTL", 5*time.Minute),
		SelectionTTL:        getDuration("SELECTION_TTL", 2*time.Minute),
		PendingSweep:        getDuration("PENDING_SWEEP", time.Minute),
		DedupTTL:            getDuration("DEDUP_TTL", time.Hour),
		RateLimitPerMinute:  getInt("RATE_LIMIT_PER_MINUTE", 100),
	}
	cfg.OracleEnabled = cfg.OracleAPIKey != "" && getEnv("ORACLE_ENABLED", "true") == "true"

	if cfg.OracleThreshold < 0 || cfg.OracleThreshold > 1 {
		return nil, fmt.Errorf("ORACLE_CONFIDENCE_THRESHOLD must be in [0, 1], got %f", cfg.OracleThreshold)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
