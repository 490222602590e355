package refresh

import (
	"context"
	"time"
)

// Store keeps the single live refresh record per principal. Values are token
// digests, never raw tokens. Put overwrites any existing record and resets its
// TTL; entries expire on their own. Get returns errors.ErrNotFound for a missing
// or expired record. Delete is idempotent. Backend failures surface as
// errors.ErrStoreUnavailable or errors.ErrTimeout.
type Store interface {
	Put(ctx context.Context, principalID, digest string, ttl time.Duration) error
	Get(ctx context.Context, principalID string) (string, error)
	Delete(ctx context.Context, principalID string) error
	// CompareAndSwap replaces the record only if it still holds expected.
	CompareAndSwap(ctx context.Context, principalID, expected, replacement string, ttl time.Duration) (bool, error)
}
