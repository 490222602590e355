package memstore_test

import (
	"context"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token/refresh/memstore"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	_, err := s.Get(ctx, "u-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)

	require.NoError(t, s.Put(ctx, "u-1", "d1", time.Hour))
	require.NoError(t, s.Put(ctx, "u-1", "d2", time.Hour))
	v, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, "d2", v)

	require.NoError(t, s.Delete(ctx, "u-1"))
	require.NoError(t, s.Delete(ctx, "u-1"))
	_, err = s.Get(ctx, "u-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func TestStore_TTLAndPurge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := memstore.New(memstore.WithNowFunc(func() time.Time { return now }))

	require.NoError(t, s.Put(ctx, "short", "d", time.Minute))
	require.NoError(t, s.Put(ctx, "long", "d", time.Hour))

	now = now.Add(time.Minute - time.Nanosecond)
	_, err := s.Get(ctx, "short")
	require.NoError(t, err)

	now = now.Add(time.Nanosecond)
	require.Equal(t, 1, s.Purge())
	require.Equal(t, 1, s.Len())
	_, err = s.Get(ctx, "short")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
	_, err = s.Get(ctx, "long")
	require.NoError(t, err)
}

func TestStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	ok, err := s.CompareAndSwap(ctx, "u-1", "a", "b", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put(ctx, "u-1", "a", time.Hour))
	ok, err = s.CompareAndSwap(ctx, "u-1", "x", "b", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "u-1", "a", "b", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	v, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, "b", v)
}

func TestStore_RunJanitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := memstore.New()
	require.NoError(t, s.Put(ctx, "u-1", "d", time.Millisecond))

	done := make(chan struct{})
	go func() {
		s.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
