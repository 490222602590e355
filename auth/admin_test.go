package auth_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-session-auth/auth"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdmin_Idempotent(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	ctx := context.Background()

	created, err := auth.EnsureAdmin(ctx, f.users, f.hasher, "Admin@X.com", "Adm1n!Pass")
	require.NoError(t, err)
	require.True(t, created)

	created, err = auth.EnsureAdmin(ctx, f.users, f.hasher, "admin@x.com", "Adm1n!Pass")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 1, f.users.Len())

	resp, err := f.service.Login(ctx, "admin@x.com", "Adm1n!Pass")
	require.NoError(t, err)
	p, err := f.gate.Authorize(resp.AccessToken, users.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, p.Role)
}

func TestEnsureAdmin_RequiresCredentials(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	_, err := auth.EnsureAdmin(context.Background(), f.users, f.hasher, "", "x")
	require.ErrorIs(t, err, autherrors.ErrInvalidInput)
}
