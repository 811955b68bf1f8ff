package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"projectmanager/internal/auth"
	"projectmanager/internal/model"
)

type contextKey int

const identityKey contextKey = 0

// identity is the verified caller extracted from a bearer token.
type identity struct {
	UserID   int64
	Username string
}

// Authenticator verifies the Authorization bearer token on every request and
// stores the decoded identity in the request context. Requests without a
// valid token are rejected with 401 before reaching any handler. Owner fields
// in request bodies are never consulted; the token is the only source of the
// caller's identity.
func Authenticator(tokens *auth.TokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, username, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				// Expired and malformed tokens are logged apart but look
				// the same to the client.
				if errors.Is(err, model.ErrTokenExpired) {
					logger.WarnContext(r.Context(), "expired token")
				} else {
					logger.WarnContext(r.Context(), "invalid token")
				}
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity{UserID: userID, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFromContext returns the verified identity stored by Authenticator.
func identityFromContext(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey).(identity)
	return id, ok
}
