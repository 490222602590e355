package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AlgorithmHS256 = "HS256"
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
)

// KeyPair represents a public/private key pair for signing tokens
type KeyPair struct {
	KeyID      string
	PrivateKey crypto.PrivateKey
	PublicKey  crypto.PublicKey
	Algorithm  string // RS256 or ES256
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kty string `json:"kty"`           // RSA, EC
	Use string `json:"use,omitempty"` // sig
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

func GenerateRSAKeyPair(keyID string, bits int) (*KeyPair, error) {
	if bits < 2048 {
		bits = 2048
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("[token.GenerateRSAKeyPair] %w", err)
	}
	return &KeyPair{
		KeyID:      keyID,
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
		Algorithm:  AlgorithmRS256,
	}, nil
}

func GenerateECDSAKeyPair(keyID string) (*KeyPair, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("[token.GenerateECDSAKeyPair] %w", err)
	}
	return &KeyPair{
		KeyID:      keyID,
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
		Algorithm:  AlgorithmES256,
	}, nil
}

func (kp *KeyPair) GetSigningMethod() jwt.SigningMethod {
	if kp.Algorithm == AlgorithmES256 {
		return jwt.SigningMethodES256
	}
	return jwt.SigningMethodRS256
}

// LoadKeyPairFromPEM parses a PKCS#1, SEC 1 or PKCS#8 private key and checks
// it matches the requested algorithm.
func LoadKeyPairFromPEM(keyID, privatePEM, algorithm string) (*KeyPair, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return nil, errors.New("[token.LoadKeyPairFromPEM] failed to decode PEM block")
	}

	key, err := parsePrivateKey(block)
	if err != nil {
		return nil, fmt.Errorf("[token.LoadKeyPairFromPEM] %w", err)
	}

	switch k := key.(type) {
	case *rsa.PrivateKey:
		if algorithm != AlgorithmRS256 {
			return nil, fmt.Errorf("[token.LoadKeyPairFromPEM] RSA key cannot sign %s", algorithm)
		}
		return &KeyPair{KeyID: keyID, PrivateKey: k, PublicKey: &k.PublicKey, Algorithm: algorithm}, nil
	case *ecdsa.PrivateKey:
		if algorithm != AlgorithmES256 || k.Curve != elliptic.P256() {
			return nil, fmt.Errorf("[token.LoadKeyPairFromPEM] EC key cannot sign %s", algorithm)
		}
		return &KeyPair{KeyID: keyID, PrivateKey: k, PublicKey: &k.PublicKey, Algorithm: algorithm}, nil
	default:
		return nil, fmt.Errorf("[token.LoadKeyPairFromPEM] unsupported key type %T", key)
	}
}

func parsePrivateKey(block *pem.Block) (any, error) {
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		return x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}

// ExportPrivateKeyPEM exports the private key as PEM
func (kp *KeyPair) ExportPrivateKeyPEM() (string, error) {
	var (
		der       []byte
		blockType string
		err       error
	)
	switch key := kp.PrivateKey.(type) {
	case *rsa.PrivateKey:
		der = x509.MarshalPKCS1PrivateKey(key)
		blockType = "RSA PRIVATE KEY"
	case *ecdsa.PrivateKey:
		if der, err = x509.MarshalECPrivateKey(key); err != nil {
			return "", fmt.Errorf("[KeyPair.ExportPrivateKeyPEM] %w", err)
		}
		blockType = "EC PRIVATE KEY"
	default:
		return "", errors.New("[KeyPair.ExportPrivateKeyPEM] unsupported private key type")
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})), nil
}

// ToJWK converts the key pair's public key to JWK format
func (kp *KeyPair) ToJWK() (*JWK, error) {
	jwk := &JWK{
		Kid: kp.KeyID,
		Use: "sig",
		Alg: kp.Algorithm,
	}

	switch pub := kp.PublicKey.(type) {
	case *rsa.PublicKey:
		jwk.Kty = "RSA"
		jwk.N = base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
		jwk.E = base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())
	case *ecdsa.PublicKey:
		size := (pub.Curve.Params().BitSize + 7) / 8
		jwk.Kty = "EC"
		jwk.Crv = "P-256"
		jwk.X = base64.RawURLEncoding.EncodeToString(pub.X.FillBytes(make([]byte, size)))
		jwk.Y = base64.RawURLEncoding.EncodeToString(pub.Y.FillBytes(make([]byte, size)))
	default:
		return nil, errors.New("[KeyPair.ToJWK] unsupported public key type")
	}

	return jwk, nil
}
