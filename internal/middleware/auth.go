package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopengine/order-service/internal/entities"
	"github.com/shopengine/order-service/pkg/utils"
)

type TokenVerifier interface {
	VerifyToken(token string) (entities.Requester, error)
}

type requesterKey struct{}

const authType = "Bearer"

// Auth resolves the bearer token into a Requester and stores it in the
// request context. Requests without a valid token never reach the
// engine.
func Auth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.WriteError(w, "authorization header is not provided", http.StatusUnauthorized)
				return
			}

			words := strings.Split(header, " ")
			if len(words) != 2 || words[0] != authType {
				utils.WriteError(w, "authorization header format is invalid", http.StatusUnauthorized)
				return
			}

			requester, err := verifier.VerifyToken(words[1])
			if err != nil {
				utils.WriteError(w, "access token is invalid", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), requesterKey{}, requester)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequesterFromContext returns the authenticated requester, if any.
func RequesterFromContext(ctx context.Context) (entities.Requester, bool) {
	requester, ok := ctx.Value(requesterKey{}).(entities.Requester)
	return requester, ok
}

// WithRequester is a test seam for handlers that need an authenticated
// context without running the full middleware.
func WithRequester(ctx context.Context, requester entities.Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, requester)
}
