package server

import (
	"encoding/json"
	"net/http"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorMapping struct {
	kind   error
	status int
	code   string
}

// Order matters: ErrUnauthenticated wraps token kinds and must be matched first.
var errorMappings = []errorMapping{
	{autherrors.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{autherrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	{autherrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{autherrors.ErrInvalidRefreshToken, http.StatusForbidden, "invalid_refresh_token"},
	{autherrors.ErrDuplicateIdentity, http.StatusConflict, "duplicate_identity"},
	{autherrors.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{autherrors.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{autherrors.ErrTimeout, http.StatusServiceUnavailable, "timeout"},
	{autherrors.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	{autherrors.ErrDownstreamRegistration, http.StatusBadGateway, "downstream_registration_failed"},
}

// statusFor maps an error kind to its HTTP status, response code and public message.
func statusFor(err error) (int, string, string) {
	for _, m := range errorMappings {
		if autherrors.Is(err, m.kind) {
			return m.status, m.code, m.kind.Error()
		}
	}
	return http.StatusInternalServerError, "internal_error", "internal server error"
}

// writeError logs err with the request logger and writes its public form.
// Wrapped detail never reaches the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := statusFor(err)
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", code).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("code", code).Msg("request rejected")
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
