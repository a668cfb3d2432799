// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

// Config is shared by the server, worker and seed commands.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`

	DBMaxConns         int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns         int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	TxStatementTimeout time.Duration `envconfig:"TX_STATEMENT_TIMEOUT" default:"30s"`

	DefaultPiecesPerBox int64  `envconfig:"DEFAULT_PIECES_PER_BOX" default:"1"`
	Timezone            string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// Location is resolved from Timezone. Calendar days in reports and
	// stock counts follow it.
	Location *time.Location `ignored:"true"`

	IdempotencyTTL     time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	IdempotencyCleanup time.Duration `envconfig:"IDEMPOTENCY_CLEANUP_INTERVAL" default:"1h"`
	HistoryPageLimit   int           `envconfig:"HISTORY_PAGE_LIMIT" default:"100"`

	// BcryptCost 0 selects bcrypt's default cost.
	BcryptCost int `envconfig:"BCRYPT_COST" default:"0"`
}

// Load reads the environment. DATABASE_URL is required.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	// required only rejects unset variables, not empty ones.
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must not be empty")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", cfg.DBMinConns, cfg.DBMaxConns)
	}
	return &cfg, nil
}
