// Package auth is the HTTP-facing bearer-token gate in front of every
// authenticated route: it resolves the Authorization header through the
// Identity Store and injects the resolved user into the request context.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apimiddleware "github.com/prefeitura-rio/prefect-auth-proxy/internal/api/middleware"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/identity"
)

// RequireToken builds a middleware that resolves the Authorization: Bearer
// header through store, responding 401 with the exact reason string
// (Invalid token / Inactive user / Expired token) on failure. The body is
// `{"detail": "..."}`, matching FastAPI's default HTTPException envelope
// the original auth dependency raises.
func RequireToken(store *identity.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondUnauthorized(w, "Invalid token")
				return
			}

			user, err := store.Resolve(r.Context(), token)
			if err != nil {
				reason := "Invalid token"
				switch {
				case errors.Is(err, identity.ErrInactiveUser):
					reason = "Inactive user"
				case errors.Is(err, identity.ErrExpiredToken):
					reason = "Expired token"
				case errors.Is(err, identity.ErrInvalidToken):
					reason = "Invalid token"
				default:
					slog.Error("token resolution failed", "error", err)
				}
				respondUnauthorized(w, reason)
				return
			}

			ctx := context.WithValue(r.Context(), apimiddleware.UserIDKey, user.ID)
			ctx = context.WithValue(ctx, apimiddleware.IsAdminKey, user.IsAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimPrefix(header, prefix)
	if token == "" {
		return "", false
	}
	return token, true
}

func respondUnauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"` + reason + `"}`))
}
