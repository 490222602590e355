package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token/refresh"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "refresh:"

// compareAndSwap sets KEYS[1] to ARGV[2] with a PX of ARGV[3] only if it currently holds ARGV[1].
var compareAndSwap = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == ARGV[1] then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
  return 1
end
return 0
`)

var _ refresh.Store = (*Store)(nil)

// Store is a refresh.Store on Redis: SET key value EX ttl, GET key, DEL key.
type Store struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// NewClient parses a redis:// URL and pings the server before returning.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("[redisstore.NewClient] empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("[redisstore.NewClient] %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, autherrors.Unavailable("[redisstore.NewClient]", err)
	}
	return client, nil
}

func key(principalID string) string {
	return keyPrefix + principalID
}

func (s *Store) Put(ctx context.Context, principalID, digest string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key(principalID), digest, ttl).Err(); err != nil {
		return autherrors.Unavailable("[redisstore.Put]", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, principalID string) (string, error) {
	v, err := s.client.Get(ctx, key(principalID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("[redisstore.Get] %w", autherrors.ErrNotFound)
	}
	if err != nil {
		return "", autherrors.Unavailable("[redisstore.Get]", err)
	}
	return v, nil
}

func (s *Store) Delete(ctx context.Context, principalID string) error {
	if err := s.client.Del(ctx, key(principalID)).Err(); err != nil {
		return autherrors.Unavailable("[redisstore.Delete]", err)
	}
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, principalID, expected, replacement string, ttl time.Duration) (bool, error) {
	n, err := compareAndSwap.Run(ctx, s.client, []string{key(principalID)}, expected, replacement, ttl.Milliseconds()).Int()
	if err != nil {
		return false, autherrors.Unavailable("[redisstore.CompareAndSwap]", err)
	}
	return n == 1, nil
}
