package token

import (
	"fmt"
	"os"

	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/rs/zerolog/log"
)

const minHMACSecretLength = 32

// NewSignerFromConfig builds the process-wide signer. HS256 requires JWT_SECRET;
// RS256 and ES256 require a PEM private key file.
func NewSignerFromConfig(cfg config.TokenConfig) (Signer, error) {
	switch alg := cfg.GetSigningAlgorithm(); alg {
	case AlgorithmHS256:
		secret := cfg.GetJWTSecret()
		if secret == "" {
			return nil, fmt.Errorf("[token.NewSignerFromConfig] JWT_SECRET is required for %s", alg)
		}
		if len(secret) < minHMACSecretLength {
			log.Warn().Int("length", len(secret)).Msg("JWT_SECRET is shorter than 32 bytes")
		}
		return NewHMACSigner(secret), nil

	case AlgorithmRS256, AlgorithmES256:
		path := cfg.GetPrivateKeyFile()
		if path == "" {
			return nil, fmt.Errorf("[token.NewSignerFromConfig] JWT_PRIVATE_KEY_FILE is required for %s", alg)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("[token.NewSignerFromConfig] %w", err)
		}
		keyPair, err := LoadKeyPairFromPEM(cfg.GetKeyID(), string(data), alg)
		if err != nil {
			return nil, fmt.Errorf("[token.NewSignerFromConfig] %w", err)
		}
		return NewKeyPairSigner(keyPair), nil

	default:
		return nil, fmt.Errorf("[token.NewSignerFromConfig] unsupported algorithm %q", alg)
	}
}
