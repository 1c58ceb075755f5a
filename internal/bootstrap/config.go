// Package bootstrap wires configuration, infrastructure, and services into a
// running application.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/artstash/artstash-api/config"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig checks the settings without which the service cannot run.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.Provider.Token == "" {
		return errors.New("REPLICATE_API_TOKEN is required")
	}
	if cfg.Storage.BaseURL == "" || cfg.Storage.Token == "" {
		return errors.New("STORAGE_BASE_URL and STORAGE_TOKEN are required")
	}
	if !cfg.IsDev && (cfg.Auth.IssuerURL == "" || cfg.Auth.ClientID == "") {
		return errors.New("AUTH_ISSUER_URL and AUTH_CLIENT_ID are required outside dev mode")
	}
	return nil
}
