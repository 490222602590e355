package errors_test

import (
	"context"
	"fmt"
	"testing"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestUnavailable(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		require.NoError(t, autherrors.Unavailable("op", nil))
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		err := autherrors.Unavailable("redis get", context.DeadlineExceeded)
		require.ErrorIs(t, err, autherrors.ErrTimeout)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.NotErrorIs(t, err, autherrors.ErrStoreUnavailable)
	})

	t.Run("other failures become store unavailable", func(t *testing.T) {
		err := autherrors.Unavailable("redis get", fmt.Errorf("connection refused"))
		require.ErrorIs(t, err, autherrors.ErrStoreUnavailable)
		require.Contains(t, err.Error(), "redis get")
	})

	t.Run("already classified is not double wrapped", func(t *testing.T) {
		inner := autherrors.Unavailable("inner", fmt.Errorf("boom"))
		err := autherrors.Unavailable("outer", inner)
		require.ErrorIs(t, err, autherrors.ErrStoreUnavailable)
		require.NotErrorIs(t, err, autherrors.ErrTimeout)
	})
}
