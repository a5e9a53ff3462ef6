package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fieldstream/ingest-gateway/internal/auth"
	"github.com/fieldstream/ingest-gateway/internal/response"
)

const bearerRealm = `Bearer realm="Kafka REST Proxy"`

// AuthMiddleware authenticates requests by their JWT bearer token and
// injects the resolved principal into the request context. Authentication
// uses only header data; the body is never read. Principals missing the
// required scope are rejected with an insufficient_scope challenge.
func AuthMiddleware(resolver *auth.Resolver, requiredScope string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.Warn("no token bearer header provided in the request",
					slog.String("path", r.URL.Path))
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			principal, err := resolver.Resolve(token)
			if err != nil {
				AddError(r.Context(), err)
				if !errors.Is(err, auth.ErrUnauthenticated) {
					// Verifier could not be built. Client tokens are not
					// at fault here.
					logger.Error("token verifier unavailable",
						slog.String("error", err.Error()))
					response.WriteError(w, http.StatusInternalServerError,
						"server_error", "configuration error")
					return
				}
				logger.Warn("failed to process token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
				w.Header().Set("WWW-Authenticate", bearerRealm+
					` error="invalid_token" error_description="The access token could not be verified"`)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			if requiredScope != "" && !principal.HasScope(requiredScope) {
				logger.Warn("token is missing required scope",
					slog.String("path", r.URL.Path),
					slog.String("scope", requiredScope))
				w.Header().Set("WWW-Authenticate", insufficientScopeChallenge(requiredScope))
				w.WriteHeader(http.StatusForbidden)
				return
			}

			AddLogField(r.Context(), "user", principal.Subject)
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), principal)))
		})
	}
}

func insufficientScopeChallenge(scope string) string {
	return fmt.Sprintf(`%s error="insufficient_scope" error_description="%s permission not given" scope=%q`,
		bearerRealm, scope, scope)
}

// bearerToken extracts the token from the Authorization header. The scheme
// match is case-insensitive; an empty token counts as absent.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}
