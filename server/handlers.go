package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-session-auth/auth"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

type messageResponse struct {
	Message string          `json:"message"`
	User    *auth.Principal `json:"user,omitempty"`
}

// RegisterHandler creates a principal and answers 201 with its first token pair.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := s.decodeAndValidate(w, r, &req); err != nil {
			s.writeRequestError(w, err)
			return
		}

		resp, err := s.deps.Auth.Register(r.Context(), auth.RegisterRequest{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := s.decodeAndValidate(w, r, &req); err != nil {
			s.writeRequestError(w, err)
			return
		}

		resp, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := s.decodeAndValidate(w, r, &req); err != nil {
			s.writeRequestError(w, err)
			return
		}

		resp, err := s.deps.Sessions.Refresh(r.Context(), req.PrincipalID, req.RefreshToken)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// LogoutHandler ends the session of the authenticated principal.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			s.writeError(w, r, fmt.Errorf("[LogoutHandler] %w", autherrors.ErrUnauthenticated))
			return
		}
		if err := s.deps.Sessions.Logout(r.Context(), principal.ID); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			s.writeError(w, r, fmt.Errorf("[ProfileHandler] %w", autherrors.ErrUnauthenticated))
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Authenticated", User: principal})
	}
}

// RoleAccessHandler answers for a route already restricted to role by RequireAuth.
func (s *Server) RoleAccessHandler(role users.Role) http.HandlerFunc {
	message := fmt.Sprintf("Access allowed for %s", role)
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		if err := auth.Permit(principal, role); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: message, User: principal})
	}
}

// JWKSHandler publishes the verification keys of asymmetric signers. HMAC
// deployments have nothing to publish and answer 404.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, ok, err := s.deps.Issuer.JWKS()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "no public keys published"})
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, jwks)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) NoContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
