package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SOLANATRACKER_API_KEY", "key")
	t.Setenv("WALLET_ADDRESS", "wallet")

	cfg := Load()
	if cfg.CheckInterval != 4*time.Second {
		t.Errorf("expected 4s interval, got %s", cfg.CheckInterval)
	}
	if cfg.TradesLimit != 100 {
		t.Errorf("expected limit 100, got %d", cfg.TradesLimit)
	}
	if !cfg.EnrichTrades || !cfg.Resume {
		t.Error("expected enrichment and resume on by default")
	}
	if cfg.SQLitePath != filepath.Join("data", "ledger.db") {
		t.Errorf("expected data/ledger.db, got %s", cfg.SQLitePath)
	}
	base := cfg.BaseAsset()
	if base.Symbol != "SOL" || base.Address != "So11111111111111111111111111111111111111112" {
		t.Errorf("expected SOL base asset, got %+v", base)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SOLANATRACKER_API_KEY", "key")
	t.Setenv("WALLET_ADDRESS", "wallet")
	t.Setenv("CHECK_INTERVAL", "10s")
	t.Setenv("TRADES_LIMIT", "50")
	t.Setenv("ENRICH_TRADES", "false")
	t.Setenv("DATA_DIR", "/tmp/out")
	t.Setenv("SQLITE_PATH", "")

	cfg := Load()
	if cfg.CheckInterval != 10*time.Second {
		t.Errorf("expected 10s, got %s", cfg.CheckInterval)
	}
	if cfg.TradesLimit != 50 {
		t.Errorf("expected 50, got %d", cfg.TradesLimit)
	}
	if cfg.EnrichTrades {
		t.Error("expected enrichment off")
	}
	if cfg.SQLitePath != "" {
		t.Errorf("expected journal disabled, got %s", cfg.SQLitePath)
	}
}

func TestGetters_InvalidFallsBack(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "-5s")
	t.Setenv("X_BOOL", "maybe")

	if got := getInt("X_INT", 7); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := getDuration("X_DUR", time.Second); got != time.Second {
		t.Errorf("expected 1s, got %s", got)
	}
	if got := getBool("X_BOOL", true); !got {
		t.Error("expected fallback true")
	}
}
