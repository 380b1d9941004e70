package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hollowtree/userhub/internal/reqerror"
	"github.com/hollowtree/userhub/internal/token"
)

// TokenValidityStore answers whether a token digest is currently valid.
type TokenValidityStore interface {
	IsValid(ctx context.Context, digest []byte) (bool, error)
}

type contextKey struct{}

// Identifier returns the login identifier attached by the middleware, or ""
// when the request was not admitted through it.
func Identifier(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// WithIdentifier attaches a login identifier to ctx.
func WithIdentifier(ctx context.Context, identifier string) context.Context {
	return context.WithValue(ctx, contextKey{}, identifier)
}

// Middleware gates requests on a bearer token. Admission requires both a
// valid signature with unexpired claims and a live digest record in the
// validity store; a well-signed token the store has never seen is rejected.
func Middleware(tokens *token.Service, store TokenValidityStore, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				reqerror.Write(w, logger, reqerror.Unauthorized("no token provided"))
				return
			}
			raw := strings.TrimSpace(authHeader[len("Bearer "):])

			identifier, err := tokens.Verify(raw)
			if err != nil {
				reqerror.Write(w, logger, err)
				return
			}

			valid, err := store.IsValid(r.Context(), tokens.Digest(raw))
			if err != nil {
				logger.Errorw("token validity lookup failed", "err", err)
				reqerror.Write(w, logger, reqerror.Internal("error validating token"))
				return
			}
			if !valid {
				reqerror.Write(w, logger, reqerror.Unauthorized("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentifier(r.Context(), identifier)))
		})
	}
}
