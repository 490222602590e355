package auth

import (
	"fmt"
	"slices"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
)

// AccessGate verifies access tokens and enforces role membership. It holds no state.
type AccessGate struct {
	issuer *token.Issuer
}

func NewAccessGate(issuer *token.Issuer) *AccessGate {
	return &AccessGate{issuer: issuer}
}

// Authenticate verifies raw and returns its principal. Any verification failure
// is ErrUnauthenticated wrapping the token error kind.
func (g *AccessGate) Authenticate(raw string) (*Principal, error) {
	claims, err := g.issuer.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("[AccessGate.Authenticate] %w: %w", autherrors.ErrUnauthenticated, err)
	}
	return &Principal{ID: claims.PrincipalID, Role: claims.Role}, nil
}

// Authorize authenticates raw and then requires its role to be one of roles.
// No roles admits any authenticated principal.
func (g *AccessGate) Authorize(raw string, roles ...users.Role) (*Principal, error) {
	p, err := g.Authenticate(raw)
	if err != nil {
		return nil, err
	}
	if err := Permit(p, roles...); err != nil {
		return nil, err
	}
	return p, nil
}

// Permit reports ErrForbidden unless p holds one of roles.
func Permit(p *Principal, roles ...users.Role) error {
	if p == nil {
		return fmt.Errorf("[auth.Permit] %w", autherrors.ErrUnauthenticated)
	}
	if len(roles) == 0 || slices.Contains(roles, p.Role) {
		return nil
	}
	return fmt.Errorf("[auth.Permit] role %s: %w", p.Role, autherrors.ErrForbidden)
}
