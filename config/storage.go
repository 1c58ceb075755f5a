package config

import "time"

// StorageConfig contains object storage configuration.
type StorageConfig struct {
	// BaseURL is the storage API root, e.g. https://project.supabase.co/storage/v1.
	BaseURL string `env:"BASE_URL"`

	// Token is the storage API token.
	Token string `env:"TOKEN"`

	// Bucket is the bucket all generation artifacts are written to.
	Bucket string `env:"BUCKET" envDefault:"generations"`

	// Timeout bounds each upload.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`

	// RetryLimit is the number of retries after a failed upload.
	RetryLimit int `env:"RETRY_LIMIT" envDefault:"2"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	if s.Timeout <= 0 {
		s.Timeout = 60 * time.Second
	}
	if s.RetryLimit < 0 {
		s.RetryLimit = 0
	}
}
