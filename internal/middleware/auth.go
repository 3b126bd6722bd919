package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/pkg/response"
)

// CredentialVerifier resolves a bearer credential (JWT or personal access
// token) to the user it belongs to.
type CredentialVerifier func(ctx context.Context, credential string) (*models.User, error)

// Auth returns a middleware that requires a valid Bearer credential and
// stores the resolved user in the request context.
func Auth(verify CredentialVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Error(w, apierrors.ErrUnauthorized.WithMessage("Not authenticated"))
				return
			}
			credential := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := verify(r.Context(), credential)
			if err != nil {
				response.Error(w, apierrors.ErrUnauthorized.WithMessage("Could not validate credentials"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userKey contextKey = "user"

// WithUser returns a context carrying the given user, as Auth would set it.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser retrieves the authenticated user from context. It returns nil when
// the request did not pass through Auth.
func GetUser(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}
