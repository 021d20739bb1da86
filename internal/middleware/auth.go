package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ayush/simple-blog/backend/internal/models"
)

// TokenVerifier resolves a bearer token to its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserStore defines the lookup needed to resolve a token subject.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type userKey struct{}

// RequireAuth validates the Authorization bearer token, resolves the subject
// to a user, checks the active flag, and injects the user into the request
// context. A missing, invalid, or expired token and a subject that no longer
// maps to any user all produce the same 401.
func RequireAuth(tokens TokenVerifier, users UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			subject, err := tokens.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetUserByUsername(r.Context(), subject)
			if err != nil {
				// Covers users deleted after the token was issued.
				unauthorized(w)
				return
			}
			if !user.IsActive {
				http.Error(w, `{"error":"inactive user"}`, http.StatusBadRequest)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, `{"error":"could not validate credentials"}`, http.StatusUnauthorized)
}

// CurrentUser returns the authenticated user injected by RequireAuth, or nil.
func CurrentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey{}).(*models.User)
	return u
}
