package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

const maxBodyBytes = 1 << 16

type registerRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024,strongpassword"`
	Role     string `json:"role" validate:"omitempty,oneof=standard organization admin"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=1024"`
}

type refreshRequest struct {
	PrincipalID  string `json:"principal_id" validate:"required,max=128"`
	RefreshToken string `json:"refresh_token" validate:"required,max=512"`
}

// fieldMessages explains each failed validation tag to the client.
var fieldMessages = map[string]string{
	"required":       "is required",
	"alphanum":       "must contain only letters and digits",
	"min":            "is too short",
	"max":            "is too long",
	"email":          "must be a valid email address",
	"oneof":          "is not a recognised value",
	"strongpassword": "must be at least 8 characters with upper and lower case letters, a digit and a special character",
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return users.ValidatePasswordStrength(fl.Field().String()) == nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// requestError is a rejected request body with per-field reasons.
type requestError struct {
	fields map[string]string
	cause  error
}

func (e *requestError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.cause)
}

func (e *requestError) Unwrap() []error {
	return []error{autherrors.ErrInvalidInput, e.cause}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty request body")
		}
		return &requestError{cause: err}
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &requestError{cause: err}
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			msg, ok := fieldMessages[fe.Tag()]
			if !ok {
				msg = "is invalid"
			}
			fields[fe.Field()] = msg
		}
		return &requestError{fields: fields, cause: err}
	}
	return nil
}

// writeRequestError reports a body that failed decoding or validation.
func (s *Server) writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	resp := errorResponse{Error: "invalid_input", Message: autherrors.ErrInvalidInput.Error()}
	if errors.As(err, &reqErr) {
		resp.Fields = reqErr.fields
	}
	writeJSON(w, http.StatusBadRequest, resp)
}
