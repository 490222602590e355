package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token/refresh"
	"github.com/jrsteele09/go-session-auth/token/refresh/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client), mr
}

func TestStore_WireFormat(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)

	require.NoError(t, s.Put(ctx, "u-1", "digest", time.Hour))

	v, err := mr.Get("refresh:u-1")
	require.NoError(t, err)
	require.Equal(t, "digest", v)
	require.Equal(t, time.Hour, mr.TTL("refresh:u-1"))

	got, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, "digest", got)

	require.NoError(t, s.Delete(ctx, "u-1"))
	require.NoError(t, s.Delete(ctx, "u-1"))
	require.False(t, mr.Exists("refresh:u-1"))
	_, err = s.Get(ctx, "u-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func TestStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)

	require.NoError(t, s.Put(ctx, "u-1", "digest", time.Minute))
	mr.FastForward(time.Minute)

	_, err := s.Get(ctx, "u-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func TestStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)

	ok, err := s.CompareAndSwap(ctx, "u-1", "a", "b", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put(ctx, "u-1", "a", time.Minute))
	ok, err = s.CompareAndSwap(ctx, "u-1", "wrong", "b", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "u-1", "a", "b", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	v, err := mr.Get("refresh:u-1")
	require.NoError(t, err)
	require.Equal(t, "b", v)
	require.Equal(t, time.Hour, mr.TTL("refresh:u-1"))
}

func TestStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)
	mr.Close()

	require.ErrorIs(t, s.Put(ctx, "u-1", "d", time.Hour), autherrors.ErrStoreUnavailable)
	_, err := s.Get(ctx, "u-1")
	require.ErrorIs(t, err, autherrors.ErrStoreUnavailable)
	require.ErrorIs(t, s.Delete(ctx, "u-1"), autherrors.ErrStoreUnavailable)
	_, err = s.CompareAndSwap(ctx, "u-1", "a", "b", time.Hour)
	require.ErrorIs(t, err, autherrors.ErrStoreUnavailable)
}

func TestStore_WithManagerRotation(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	m := refresh.NewManager(s, refresh.WithRotation(true), refresh.WithTTL(time.Hour))

	tok, err := m.Create(ctx, "u-1")
	require.NoError(t, err)
	next, err := m.Rotate(ctx, "u-1", tok)
	require.NoError(t, err)

	require.ErrorIs(t, m.Validate(ctx, "u-1", tok), autherrors.ErrInvalidRefreshToken)
	require.NoError(t, m.Validate(ctx, "u-1", next))
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redisstore.NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = redisstore.NewClient(context.Background(), "")
	require.Error(t, err)
	_, err = redisstore.NewClient(context.Background(), "not a url")
	require.Error(t, err)
}
