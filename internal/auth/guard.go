package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/microlearn-be/internal/apperrors"
	"github.com/isdelr/microlearn-be/internal/models"
)

// TokenVerifier verifies a raw session token.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// contextKey is the type for values this package stores in a request context.
type contextKey string

// IdentityKey is the context key for the verified identity.
const IdentityKey = contextKey("identity")

// ErrorWriter renders an authentication or authorization failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Guard authenticates requests and enforces role membership.
type Guard struct {
	verifier   TokenVerifier
	writeError ErrorWriter
}

// NewGuard creates a Guard that verifies tokens with verifier and reports
// failures through writeError.
func NewGuard(verifier TokenVerifier, writeError ErrorWriter) *Guard {
	return &Guard{verifier: verifier, writeError: writeError}
}

// Authenticate extracts the bearer token from the Authorization header and verifies it.
func (g *Guard) Authenticate(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, apperrors.Unauthenticated("missing authorization header")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.ContainsAny(token, " \t") {
		return nil, apperrors.Unauthenticated("authorization header must be 'Bearer <token>'")
	}

	return g.verifier.Verify(token)
}

// Authorize fails with Forbidden unless the identity's role is one of allowed.
func Authorize(id *Identity, allowed ...models.Role) error {
	for _, role := range allowed {
		if id.Role == role {
			return nil
		}
	}
	return apperrors.Forbidden("insufficient permissions")
}

// RequireAuth is middleware that rejects unauthenticated requests and passes
// the verified identity down via context.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
			g.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is middleware that must run after RequireAuth and rejects
// identities whose role is not allowed.
func (g *Guard) RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				g.writeError(w, r, apperrors.Unauthenticated("missing identity"))
				return
			}
			if err := Authorize(id, allowed...); err != nil {
				log.Warn().Str("subject", id.Subject).Str("role", string(id.Role)).Str("path", r.URL.Path).Msg("Forbidden request")
				g.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the identity stored by RequireAuth.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*Identity)
	return id, ok
}
