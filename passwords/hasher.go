package passwords

import (
	"context"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/metrics"
)

// Hasher derives salted one-way digests and verifies plaintexts against them.
// Hash fails only on internal errors such as entropy exhaustion, never on the
// shape of the plaintext. Verify reports a mismatch as (false, nil); an error
// means the digest itself could not be used.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// New returns the named hasher wrapped with duration metrics.
func New(algorithm string, bcryptCost int) (Hasher, error) {
	switch algorithm {
	case AlgorithmBcrypt, "":
		return Instrumented(NewBcryptHasher(bcryptCost)), nil
	case AlgorithmArgon2id:
		return Instrumented(NewArgon2Hasher(nil)), nil
	default:
		return nil, fmt.Errorf("[passwords.New] unsupported algorithm %q", algorithm)
	}
}

type instrumented struct {
	next Hasher
}

// Instrumented records every Hash and Verify in the auth_password_hash_seconds histogram.
func Instrumented(h Hasher) Hasher {
	return instrumented{next: h}
}

func (i instrumented) Hash(ctx context.Context, plaintext string) (string, error) {
	defer metrics.ObserveHash(time.Now())
	return i.next.Hash(ctx, plaintext)
}

func (i instrumented) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	defer metrics.ObserveHash(time.Now())
	return i.next.Verify(ctx, plaintext, digest)
}

func hashingError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, autherrors.ErrHashingError, err)
}
