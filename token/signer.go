package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs claims and supplies the verification key for a parsed token.
// GetVerificationKey rejects any token whose algorithm family differs from the signer's.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	GetVerificationKey(token *jwt.Token) (any, error)
	GetSigningMethod() jwt.SigningMethod
}

// JWKSProvider is implemented by signers whose verification key may be published.
type JWKSProvider interface {
	GetJWKS() (*JWKS, error)
}

// HMACsigner implements Signer using symmetric HMAC-SHA256
type HMACsigner struct {
	secret []byte
}

var _ Signer = (*HMACsigner)(nil)

func NewHMACSigner(secret string) *HMACsigner {
	return &HMACsigner{
		secret: []byte(secret),
	}
}

func (h *HMACsigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("[HMACsigner.Sign] %w", err)
	}
	return signed, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

// KeyPairSigner implements Signer using RSA or ECDSA
type KeyPairSigner struct {
	keyPair *KeyPair
}

var (
	_ Signer       = (*KeyPairSigner)(nil)
	_ JWKSProvider = (*KeyPairSigner)(nil)
)

func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{
		keyPair: keyPair,
	}
}

func (a *KeyPairSigner) Sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(a.keyPair.GetSigningMethod(), claims)
	tok.Header["kid"] = a.keyPair.KeyID

	signed, err := tok.SignedString(a.keyPair.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("[KeyPairSigner.Sign] %w", err)
	}
	return signed, nil
}

func (a *KeyPairSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if token.Method.Alg() != a.keyPair.Algorithm {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return a.keyPair.PublicKey, nil
}

func (a *KeyPairSigner) GetSigningMethod() jwt.SigningMethod {
	return a.keyPair.GetSigningMethod()
}

func (a *KeyPairSigner) GetJWKS() (*JWKS, error) {
	jwk, err := a.keyPair.ToJWK()
	if err != nil {
		return nil, fmt.Errorf("[KeyPairSigner.GetJWKS] %w", err)
	}
	return &JWKS{Keys: []JWK{*jwk}}, nil
}
