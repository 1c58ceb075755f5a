package config

import "strings"

// MetricsConfig contains StatsD metrics configuration.
type MetricsConfig struct {
	// Enabled turns metric emission on. Requires an address.
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// Address is the UDP address of the StatsD endpoint, e.g. "statsd:8125".
	Address string `env:"ADDRESS"`

	// Prefix is prepended to every metric name.
	Prefix string `env:"PREFIX" envDefault:"artstash"`
}

// Sanitize applies guardrails to metrics configuration values.
func (m *MetricsConfig) Sanitize() {
	m.Address = strings.TrimSpace(m.Address)
	m.Prefix = strings.TrimSpace(m.Prefix)
	if m.Address == "" {
		m.Enabled = false
	}
}
