package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/ids"
	"github.com/jrsteele09/go-session-auth/users"
)

// Claims carried by an access token: {id, role, iat, exp} plus jti and optional iss.
type Claims struct {
	PrincipalID string     `json:"id"`
	Role        users.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies access tokens with a single pinned signer.
type Issuer struct {
	signer  Signer
	issuer  string
	nowFunc func() time.Time
}

type IssuerOption func(*Issuer)

// WithIssuerName sets the iss claim and requires it on verification.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) { i.issuer = name }
}

func WithNowFunc(f func() time.Time) IssuerOption {
	return func(i *Issuer) { i.nowFunc = f }
}

func NewIssuer(signer Signer, opts ...IssuerOption) *Issuer {
	i := &Issuer{signer: signer, nowFunc: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue signs a token for subjectID valid for lifetime from now.
func (i *Issuer) Issue(subjectID string, role users.Role, lifetime time.Duration) (string, error) {
	if subjectID == "" || !role.Valid() || lifetime <= 0 {
		return "", fmt.Errorf("[Issuer.Issue] subject %q role %q lifetime %s: %w", subjectID, role, lifetime, autherrors.ErrInvalidInput)
	}
	now := i.nowFunc()
	claims := Claims{
		PrincipalID: subjectID,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ids.New(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Issuer.Issue] %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. A token is valid while now < exp.
// Failures carry one of ErrTokenMalformed, ErrTokenExpired or ErrInvalidSignature.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.NewParser(opts...).ParseWithClaims(raw, claims, i.signer.GetVerificationKey); err != nil {
		return nil, fmt.Errorf("[Issuer.Verify] %w: %w", classify(err), err)
	}
	if claims.PrincipalID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("[Issuer.Verify] missing id or role: %w", autherrors.ErrTokenMalformed)
	}
	return claims, nil
}

// JWKS returns the published key set, or false for symmetric signers.
func (i *Issuer) JWKS() (*JWKS, bool, error) {
	p, ok := i.signer.(JWKSProvider)
	if !ok {
		return nil, false, nil
	}
	jwks, err := p.GetJWKS()
	return jwks, true, err
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return autherrors.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return autherrors.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return autherrors.ErrTokenExpired
	default:
		return autherrors.ErrTokenMalformed
	}
}
