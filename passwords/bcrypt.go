package passwords

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects inputs over 72 bytes.
const bcryptMaxInput = 72

type BcryptHasher struct {
	cost int
}

var _ Hasher = (*BcryptHasher)(nil)

// NewBcryptHasher clamps cost into bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (b *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", hashingError("[BcryptHasher.Hash]", err)
	}
	digest, err := bcrypt.GenerateFromPassword(bcryptInput(plaintext), b.cost)
	if err != nil {
		return "", hashingError("[BcryptHasher.Hash]", err)
	}
	return string(digest), nil
}

func (b *BcryptHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, hashingError("[BcryptHasher.Verify]", err)
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), bcryptInput(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, hashingError("[BcryptHasher.Verify]", err)
	}
}

// bcryptInput pre-hashes plaintexts longer than bcrypt accepts so every byte counts.
func bcryptInput(plaintext string) []byte {
	if len(plaintext) <= bcryptMaxInput {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
