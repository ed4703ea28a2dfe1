// Package config loads service configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/assetvault/internal/purge"
	"github.com/dmitrymomot/assetvault/pkg/assets"
	"github.com/dmitrymomot/assetvault/pkg/db"
	"github.com/dmitrymomot/assetvault/pkg/logger"
	"github.com/dmitrymomot/assetvault/pkg/storage"
)

// Config aggregates all service settings.
type Config struct {
	Server  ServerConfig
	DB      db.Config
	Storage storage.Config
	Signer  assets.SignerConfig
	Upload  assets.UploadConfig
	Purge   purge.Config
	Sentry  logger.SentryConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; real environment
// variables win over file values.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
