package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.HomeCurrency != "ARS" {
		t.Errorf("HomeCurrency = %q", cfg.HomeCurrency)
	}
	if cfg.OracleThreshold != 0.7 {
		t.Errorf("OracleThreshold = %f", cfg.OracleThreshold)
	}
	if cfg.ProposalTTL != 5*time.Minute {
		t.Errorf("ProposalTTL = %s", cfg.ProposalTTL)
	}
	if cfg.OracleEnabled {
		t.Error("oracle enabled without an API key")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("ORACLE_CONFIDENCE_THRESHOLD", "0.9")
	t.Setenv("PROPOSAL_TTL", "90s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if !cfg.OracleEnabled || cfg.OracleThreshold != 0.9 {
		t.Errorf("oracle = enabled=%v threshold=%f", cfg.OracleEnabled, cfg.OracleThreshold)
	}
	if cfg.ProposalTTL != 90*time.Second {
		t.Errorf("ProposalTTL = %s", cfg.ProposalTTL)
	}
	if cfg.RateLimitPerMinute != 30 {
		t.Errorf("RateLimitPerMinute = %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("ORACLE_CONFIDENCE_THRESHOLD", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("out-of-range threshold accepted")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PROPOSAL_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProposalTTL != 5*time.Minute {
		t.Errorf("ProposalTTL = %s, want default", cfg.ProposalTTL)
	}
	if cfg.RateLimitPerMinute != 100 {
		t.Errorf("RateLimitPerMinute = %d, want default", cfg.RateLimitPerMinute)
	}
}
