// Package oidc verifies bearer tokens against an OIDC issuer.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/artstash/artstash-api/internal/ports"
)

// VerifierConfig holds configuration for the token verifier.
type VerifierConfig struct {
	// IssuerURL is the OIDC issuer, or its discovery URL; a trailing
	// /.well-known/openid-configuration suffix is stripped.
	IssuerURL  string
	ClientID   string
	HTTPClient *http.Client // Optional, defaults to a 30s client
}

// Verifier validates bearer tokens using the issuer's published keys.
// It implements ports.TokenVerifier.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

// NewVerifier performs OIDC discovery against the issuer and builds a
// verifier for its signing keys.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Verifier{
		verifier: provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

type tokenClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// Verify validates a raw bearer token and returns the caller identity.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (ports.Identity, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return ports.Identity{}, fmt.Errorf("verify token: %w", err)
	}

	var claims tokenClaims
	if err := token.Claims(&claims); err != nil {
		return ports.Identity{}, fmt.Errorf("parse token claims: %w", err)
	}
	if claims.Sub == "" {
		return ports.Identity{}, errors.New("token missing subject")
	}

	return ports.Identity{
		Subject: claims.Sub,
		Email:   claims.Email,
	}, nil
}
