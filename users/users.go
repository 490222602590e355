package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// Role is the closed set of authorization levels a principal can hold.
type Role string

const (
	RoleStandard     Role = "standard"     // Individual account, self-service
	RoleOrganization Role = "organization" // Organisation account, self-service
	RoleAdmin        Role = "admin"        // Created only through the admin bootstrap
)

// ParseRole is the single boundary check for role strings. Empty input selects RoleStandard.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RoleStandard, nil
	case RoleStandard, RoleOrganization, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("[users.ParseRole] %q: %w", s, autherrors.ErrInvalidRole)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleOrganization, RoleAdmin:
		return true
	}
	return false
}

// SelfService reports whether the role may be chosen at registration.
func (r Role) SelfService() bool {
	return r == RoleStandard || r == RoleOrganization
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID           string    `json:"id"`                 // Immutable principal identifier
	Email        string    `json:"email"`              // Normalised, unique
	Username     string    `json:"username,omitempty"` // Display name
	PasswordHash string    `json:"-"`                  // Never serialised
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail trims and lower-cases an email so lookups and inserts agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number and one special character
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}
