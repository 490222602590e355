package auth

import (
	"context"

	"github.com/jrsteele09/go-session-auth/users"
)

// Principal is the verified identity carried by an access token.
type Principal struct {
	ID   string     `json:"id"`
	Role users.Role `json:"role"`
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// TokenResponse is returned by Register, Login and Refresh.
type TokenResponse struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`              // Access token lifetime in seconds
	RefreshToken *string    `json:"refresh_token,omitempty"` // Absent when refresh tokens are disabled
	PrincipalID  string     `json:"principal_id"`
	Role         users.Role `json:"role"`
}
