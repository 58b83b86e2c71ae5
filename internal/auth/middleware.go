package auth

import (
	"context"
	"net/http"
	"strings"

	"quiznufi-service/internal/domain"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// WithIdentity stores the request participant in ctx.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, identity)
}

// IdentityFromContext returns the participant attached by Middleware, or a guest.
func IdentityFromContext(ctx context.Context) domain.Identity {
	if v, ok := ctx.Value(ctxKeyIdentity).(domain.Identity); ok {
		return v
	}
	return domain.GuestIdentity()
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// Middleware attaches the identity of an optional bearer token. Requests
// without a token continue as guests; a bad token is rejected.
func Middleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := s.Verify(token)
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
