package config

// AuthConfig contains bearer token verification configuration.
type AuthConfig struct {
	// IssuerURL is the OIDC issuer whose tokens the API accepts.
	IssuerURL string `env:"AUTH_ISSUER_URL"`

	// ClientID is the expected audience of incoming tokens.
	ClientID string `env:"AUTH_CLIENT_ID"`
}
