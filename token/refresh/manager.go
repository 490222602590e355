package refresh

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

const (
	DefaultTTL    = 7 * 24 * time.Hour
	DefaultLength = 32 // bytes = 256 bits
)

// Manager creates, checks, rotates and revokes opaque refresh tokens. The
// client receives hex-encoded random bytes; the store only sees their SHA-256 digest.
type Manager struct {
	store  Store
	ttl    time.Duration
	length int
	rotate bool
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithTokenLength(n int) Option {
	return func(m *Manager) {
		if n >= 16 {
			m.length = n
		}
	}
}

// WithRotation makes every successful refresh replace the refresh token.
func WithRotation(rotate bool) Option {
	return func(m *Manager) { m.rotate = rotate }
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{store: store, ttl: DefaultTTL, length: DefaultLength}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Rotates() bool { return m.rotate }

func (m *Manager) TTL() time.Duration { return m.ttl }

// Create issues a new refresh token for principalID, superseding any previous one.
func (m *Manager) Create(ctx context.Context, principalID string) (string, error) {
	tok, err := m.generate()
	if err != nil {
		return "", fmt.Errorf("[Manager.Create] %w", err)
	}
	if err := m.store.Put(ctx, principalID, HashToken(tok), m.ttl); err != nil {
		return "", fmt.Errorf("[Manager.Create] principal %s: %w", principalID, err)
	}
	return tok, nil
}

// Validate checks presented against the live record. A missing record or a
// mismatch both yield errors.ErrInvalidRefreshToken.
func (m *Manager) Validate(ctx context.Context, principalID, presented string) error {
	stored, err := m.store.Get(ctx, principalID)
	if errors.Is(err, autherrors.ErrNotFound) {
		return fmt.Errorf("[Manager.Validate] %w", autherrors.ErrInvalidRefreshToken)
	}
	if err != nil {
		return fmt.Errorf("[Manager.Validate] principal %s: %w", principalID, err)
	}
	if presented == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(HashToken(presented))) != 1 {
		return fmt.Errorf("[Manager.Validate] %w", autherrors.ErrInvalidRefreshToken)
	}
	return nil
}

// Rotate validates presented and atomically replaces it with a new token. Of two
// concurrent rotations with the same token, at most one succeeds.
func (m *Manager) Rotate(ctx context.Context, principalID, presented string) (string, error) {
	if err := m.Validate(ctx, principalID, presented); err != nil {
		return "", err
	}
	next, err := m.generate()
	if err != nil {
		return "", fmt.Errorf("[Manager.Rotate] %w", err)
	}
	swapped, err := m.store.CompareAndSwap(ctx, principalID, HashToken(presented), HashToken(next), m.ttl)
	if err != nil {
		return "", fmt.Errorf("[Manager.Rotate] principal %s: %w", principalID, err)
	}
	if !swapped {
		return "", fmt.Errorf("[Manager.Rotate] superseded: %w", autherrors.ErrInvalidRefreshToken)
	}
	return next, nil
}

// Revoke deletes the principal's refresh record; absent records are not an error.
func (m *Manager) Revoke(ctx context.Context, principalID string) error {
	if err := m.store.Delete(ctx, principalID); err != nil {
		return fmt.Errorf("[Manager.Revoke] principal %s: %w", principalID, err)
	}
	return nil
}

func (m *Manager) generate() (string, error) {
	b := make([]byte, m.length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 digest stored in place of a raw token.
func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
