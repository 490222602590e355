package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the credential and session subsystem. Callers classify
// with Is; no kind is retried internally.
var (
	// Credential errors
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("role not assignable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrHashingError       = errors.New("password hashing failed")

	// Token errors
	ErrTokenMalformed      = errors.New("token malformed")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidSignature    = errors.New("token signature invalid")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Access errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// Infrastructure errors
	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrTimeout                = errors.New("operation timed out")
	ErrDownstreamRegistration = errors.New("downstream registration failed")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unavailable classifies an infrastructure failure: deadline overruns become
// ErrTimeout, everything else ErrStoreUnavailable. The cause stays in the chain.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isDeadline(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
