// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; the HTTP middleware consumes them.
package ports

import "context"

// Identity is the authenticated end-user identity extracted from a token.
// Subject is the owner id that scopes folders, jobs, and assets.
type Identity struct {
	Subject string
	Email   string
}

// TokenVerifier validates a bearer token and returns the caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}
