package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "artstash_test")
	t.Setenv("REDIS_ADDR", "cache.internal:6379")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("APP_BASE_URL", "https://api.example.com")
	t.Setenv("REPLICATE_API_TOKEN", "r8_secret")
	t.Setenv("REPLICATE_TIMEOUT", "45s")
	t.Setenv("STORAGE_BASE_URL", "https://project.supabase.co/storage/v1")
	t.Setenv("STORAGE_TOKEN", "sb_secret")
	t.Setenv("STORAGE_BUCKET", "artifacts")
	t.Setenv("OUTPUT_EXPRESSION", "output.images")
	t.Setenv("AUTH_ISSUER_URL", "https://login.example.com")
	t.Setenv("AUTH_CLIENT_ID", "artstash-api")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Port != 5433 {
		t.Errorf("unexpected postgres config: %+v", cfg.Postgres)
	}
	if cfg.Postgres.Name != "artstash_test" {
		t.Errorf("expected database name artstash_test, got %q", cfg.Postgres.Name)
	}
	if cfg.Redis.Addr != "cache.internal:6379" || cfg.Redis.Enabled {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.HTTP.BaseURL != "https://api.example.com" {
		t.Errorf("unexpected http config: %+v", cfg.HTTP)
	}
	if cfg.Provider.Token != "r8_secret" || cfg.Provider.Timeout != 45*time.Second {
		t.Errorf("unexpected provider config: %+v", cfg.Provider)
	}
	if cfg.Provider.BaseURL != "https://api.replicate.com/v1" {
		t.Errorf("expected provider base url default, got %q", cfg.Provider.BaseURL)
	}
	if cfg.Storage.Bucket != "artifacts" {
		t.Errorf("expected bucket artifacts, got %q", cfg.Storage.Bucket)
	}
	if cfg.Pipeline.OutputExpression != "output.images" {
		t.Errorf("expected output expression, got %q", cfg.Pipeline.OutputExpression)
	}
	if cfg.Auth.IssuerURL != "https://login.example.com" || cfg.Auth.ClientID != "artstash-api" {
		t.Errorf("unexpected auth config: %+v", cfg.Auth)
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.Storage.Bucket != "generations" {
		t.Errorf("expected default bucket generations, got %q", cfg.Storage.Bucket)
	}
	if !cfg.Postgres.RunMigrationsOnStart {
		t.Error("expected migrations on start by default")
	}
	if !cfg.Redis.Enabled {
		t.Error("expected redis enabled by default")
	}
	if cfg.Pipeline.DownloadMaxBytes != 64<<20 {
		t.Errorf("expected 64MiB download cap, got %d", cfg.Pipeline.DownloadMaxBytes)
	}
	if cfg.Pipeline.MaterializeFanout != 4 {
		t.Errorf("expected fanout 4, got %d", cfg.Pipeline.MaterializeFanout)
	}
}

func TestProviderConfig_Sanitize(t *testing.T) {
	cfg := ProviderConfig{Timeout: -1, RetryLimit: -3}
	cfg.Sanitize()

	if cfg.Timeout != 90*time.Second {
		t.Errorf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit != 0 {
		t.Errorf("expected retry limit clamped to 0, got %d", cfg.RetryLimit)
	}
}

func TestStorageConfig_Sanitize(t *testing.T) {
	cfg := StorageConfig{Timeout: 0, RetryLimit: -1}
	cfg.Sanitize()

	if cfg.Timeout != 60*time.Second {
		t.Errorf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit != 0 {
		t.Errorf("expected retry limit clamped to 0, got %d", cfg.RetryLimit)
	}
}

func TestPipelineConfig_Sanitize(t *testing.T) {
	cfg := PipelineConfig{
		DownloadTimeout:    0,
		DownloadRetryLimit: -1,
		DownloadMaxBytes:   0,
		MaterializeFanout:  0,
	}
	cfg.Sanitize()

	if cfg.DownloadTimeout != 30*time.Second {
		t.Errorf("expected download timeout default, got %v", cfg.DownloadTimeout)
	}
	if cfg.DownloadRetryLimit != 0 {
		t.Errorf("expected retry limit clamped to 0, got %d", cfg.DownloadRetryLimit)
	}
	if cfg.DownloadMaxBytes != 64<<20 {
		t.Errorf("expected download cap default, got %d", cfg.DownloadMaxBytes)
	}
	if cfg.MaterializeFanout != 1 {
		t.Errorf("expected fanout clamped to 1, got %d", cfg.MaterializeFanout)
	}
}

func TestMetricsConfig_Sanitize(t *testing.T) {
	cfg := MetricsConfig{Enabled: true, Address: "  ", Prefix: " artstash "}
	cfg.Sanitize()

	if cfg.Enabled {
		t.Error("expected metrics disabled without an address")
	}
	if cfg.Prefix != "artstash" {
		t.Errorf("expected prefix trimmed, got %q", cfg.Prefix)
	}

	cfg = MetricsConfig{Enabled: true, Address: " statsd:8125 "}
	cfg.Sanitize()

	if !cfg.Enabled || cfg.Address != "statsd:8125" {
		t.Errorf("expected metrics to stay enabled with trimmed address, got %+v", cfg)
	}
}

func TestAppConfig_DetectDevMode(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Error("expected APP_ENV=development to enable dev mode")
	}
}
