// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Bearer token verification
//   - database.go: Database and cache configuration
//   - http.go: HTTP server configuration
//   - provider.go: Generation provider configuration
//   - storage.go: Object storage configuration
//   - pipeline.go: Ingestion pipeline tunables
//   - observability.go: StatsD metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging, relaxed auth).
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Generation provider configuration
	Provider ProviderConfig `envPrefix:"REPLICATE_"`

	// Object storage configuration
	Storage StorageConfig `envPrefix:"STORAGE_"`

	// Ingestion pipeline configuration
	Pipeline PipelineConfig

	// StatsD metrics configuration
	Metrics MetricsConfig `envPrefix:"STATSD_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Provider.Sanitize()
	c.Storage.Sanitize()
	c.Pipeline.Sanitize()
	c.Metrics.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}
