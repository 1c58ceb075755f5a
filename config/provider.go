package config

import "time"

// ProviderConfig contains generation provider (Replicate) configuration.
type ProviderConfig struct {
	// BaseURL is the provider API root.
	BaseURL string `env:"BASE_URL" envDefault:"https://api.replicate.com/v1"`

	// Token is the provider API token.
	Token string `env:"API_TOKEN"`

	// Timeout bounds each provider API call. Synchronous runs hold the
	// request open, so this needs headroom over the wait window.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"90s"`

	// RetryLimit is the number of retries after a failed provider call.
	RetryLimit int `env:"RETRY_LIMIT" envDefault:"2"`
}

// Sanitize applies guardrails to provider configuration values.
func (p *ProviderConfig) Sanitize() {
	if p.Timeout <= 0 {
		p.Timeout = 90 * time.Second
	}
	if p.RetryLimit < 0 {
		p.RetryLimit = 0
	}
}
