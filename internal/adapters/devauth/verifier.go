// Package devauth provides a development-only token verifier.
package devauth

import (
	"context"
	"errors"
	"strings"

	"github.com/artstash/artstash-api/internal/ports"
)

// Verifier accepts any non-empty bearer token and uses it as the caller
// subject. "alice" or "alice:alice@example.com" both work. Never enable
// outside local development.
type Verifier struct{}

// NewVerifier constructs the development verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify implements ports.TokenVerifier.
func (v *Verifier) Verify(_ context.Context, rawToken string) (ports.Identity, error) {
	subject, email, _ := strings.Cut(strings.TrimSpace(rawToken), ":")
	if subject == "" {
		return ports.Identity{}, errors.New("empty dev token")
	}
	return ports.Identity{Subject: subject, Email: email}, nil
}
