package auth

import (
	"fmt"
	"sync"

	"github.com/fieldstream/ingest-gateway/internal/config"
)

// Resolver lazily constructs and caches the token verifier. The first
// Resolve call pays the initialization cost, which may fetch a public key
// over the network; concurrent first calls construct the verifier exactly
// once. After construction the verifier is shared read-only.
type Resolver struct {
	cfg config.AuthConfig

	once     sync.Once
	verifier *Verifier
	initErr  error
}

// NewResolver returns a resolver that will build its verifier on first use.
func NewResolver(cfg config.AuthConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve verifies the bearer token and returns the authenticated principal.
// Token failures wrap ErrUnauthenticated; an initialization failure does
// not, since it indicates gateway misconfiguration rather than a bad token.
func (r *Resolver) Resolve(tokenString string) (*Principal, error) {
	r.once.Do(func() {
		r.verifier, r.initErr = NewVerifier(r.cfg)
	})
	if r.initErr != nil {
		return nil, fmt.Errorf("verifier initialization: %w", r.initErr)
	}
	return r.verifier.Verify(tokenString)
}
