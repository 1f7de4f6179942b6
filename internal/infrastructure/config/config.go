package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Relay (shared remote store)
	RelayBackend   string        `env:"RELAY_BACKEND"    envDefault:"http"`
	RelayURL       string        `env:"RELAY_URL"        envDefault:"http://localhost:9400/cashbook"`
	RelayAuthToken string        `env:"RELAY_AUTH_TOKEN" envDefault:""`
	RelayTimeout   time.Duration `env:"RELAY_TIMEOUT"    envDefault:"10s"`
	RelayKey       string        `env:"RELAY_KEY"        envDefault:"cashbook:snapshot"`

	// Redis (only used when RELAY_BACKEND=redis)
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// Reconciliation
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1500ms"`

	// Local cache
	StateDir string `env:"STATE_DIR" envDefault:"./data"`

	// Role
	WriterRole bool `env:"WRITER_ROLE" envDefault:"false"`

	// Exchange rate feed
	RatesURL         string        `env:"RATES_URL"          envDefault:"https://open.er-api.com/v6/latest/GBP"`
	RatesTimeout     time.Duration `env:"RATES_TIMEOUT"      envDefault:"15s"`
	RatesRefreshSpec string        `env:"RATES_REFRESH_SPEC" envDefault:"@every 1h"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
