// Package auth resolves bearer tokens into authenticated principals.
// Cryptographic verification is delegated to golang-jwt; this package owns
// the cached verifier lifecycle and the claims-to-principal translation.
package auth

import (
	"context"
	"strings"
)

// Principal is the authenticated identity resolved from a bearer token.
// It is immutable and scoped to a single request.
type Principal struct {
	Token   string
	Subject string
	Scopes  []string
}

// HasScope reports whether the principal was granted the named scope.
func (p *Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// usernameFrom derives the local username from a subject claim.
// Email-shaped subjects are truncated at the first '@'.
func usernameFrom(subject string) string {
	name, _, _ := strings.Cut(subject, "@")
	return name
}

type principalKey struct{}

// NewContext returns a context carrying the principal.
func NewContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context.
// Returns nil if the request was not authenticated.
func FromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}
