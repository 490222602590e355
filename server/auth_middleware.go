package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-auth/auth"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

// RequireAuth validates the Bearer access token and, when roles are given,
// requires the principal to hold one of them. The verified principal is
// stored in the request context.
func (s *Server) RequireAuth(roles ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				s.writeError(w, r, err)
				return
			}

			principal, err := s.deps.Gate.Authorize(raw, roles...)
			if err != nil {
				s.writeError(w, r, err)
				return
			}

			next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing Authorization header: %w", autherrors.ErrUnauthenticated)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid Authorization header format: %w", autherrors.ErrUnauthenticated)
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("empty token: %w", autherrors.ErrUnauthenticated)
	}
	return token, nil
}
