package config_test

import (
	"testing"
	"time"

	"github.com/iho/cashbook/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RELAY_URL", "")
	t.Setenv("RELAY_AUTH_TOKEN", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.RelayBackend != "http" {
		t.Fatalf("expected default relay backend http, got %q", cfg.RelayBackend)
	}

	if cfg.RelayURL == "" {
		t.Fatalf("expected default relay URL to be set")
	}

	if cfg.PollInterval != 1500*time.Millisecond {
		t.Fatalf("expected default poll interval 1.5s, got %s", cfg.PollInterval)
	}

	if cfg.WriterRole {
		t.Fatalf("expected default role to be observer")
	}

	if cfg.RatesTimeout != 15*time.Second {
		t.Fatalf("expected default rates timeout 15s, got %s", cfg.RatesTimeout)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RELAY_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("WRITER_ROLE", "true")
	t.Setenv("STATE_DIR", "/tmp/cashbook")
	t.Setenv("RATES_TIMEOUT", "3s")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.RelayBackend != "redis" {
		t.Fatalf("expected relay backend override, got %s", cfg.RelayBackend)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("expected poll interval override, got %s", cfg.PollInterval)
	}

	if !cfg.WriterRole {
		t.Fatalf("expected writer role override to be true")
	}

	if cfg.StateDir != "/tmp/cashbook" {
		t.Fatalf("expected state dir override, got %s", cfg.StateDir)
	}

	if cfg.RatesTimeout != 3*time.Second {
		t.Fatalf("expected rates timeout override, got %s", cfg.RatesTimeout)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
