package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/casa/internal/auth"
	"github.com/dukerupert/casa/internal/model"
)

// ErrorWriter writes err to the client in the API envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type TokenVerifier interface {
	Verify(token string) (auth.AuthContext, error)
}

type AdminChecker interface {
	RequireAdmin(ctx context.Context, userID string) (*model.User, error)
}

// RequireAuth validates the bearer token and populates AuthContext.
func RequireAuth(verifier TokenVerifier, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, err := verifier.Verify(auth.BearerToken(r))
			if err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireAdmin checks against the user store that the authenticated user is
// an admin. It must run after RequireAuth.
func RequireAdmin(checker AdminChecker, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := checker.RequireAdmin(r.Context(), auth.UserID(r.Context())); err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
