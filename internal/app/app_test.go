package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/app"
	"github.com/jrsteele09/go-session-auth/internal/config"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!Pw"

// setEnv isolates a test from the host environment.
func setEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	base := map[string]string{
		"JWT_SECRET":               "0123456789abcdef0123456789abcdef",
		"JWT_ALGORITHM":            "HS256",
		"BCRYPT_COST":              "4",
		"PASSWORD_HASHER":          "bcrypt",
		"REFRESH_STRATEGY":         "memory",
		"DATABASE_URL":             "",
		"REGISTRATION_SERVICE_URL": "",
		"REGISTRATION_AMQP_URL":    "",
		"ADMIN_EMAIL":              "",
		"ADMIN_PASSWORD":           "",
	}
	for k, v := range overrides {
		base[k] = v
	}
	for k, v := range base {
		t.Setenv(k, v)
	}
}

func build(t *testing.T) *app.App {
	t.Helper()
	a, err := app.Build(context.Background(), config.New())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a
}

func register(t *testing.T, a *app.App) *auth.TokenResponse {
	t.Helper()
	resp, err := a.Deps.Auth.Register(context.Background(), auth.RegisterRequest{
		Username: "alice1", Email: "a@x.com", Password: testPassword,
	})
	require.NoError(t, err)
	return resp
}

func TestBuildMemoryStrategy(t *testing.T) {
	setEnv(t, nil)
	a := build(t)

	require.NotNil(t, a.Deps.Auth)
	require.NotNil(t, a.Deps.Sessions)
	require.NotNil(t, a.Deps.Gate)
	require.Len(t, a.Background(), 1)

	resp := register(t, a)
	require.NotNil(t, resp.RefreshToken)
	_, err := a.Deps.Sessions.Refresh(context.Background(), resp.PrincipalID, *resp.RefreshToken)
	require.NoError(t, err)
}

func TestBuildRefreshDisabled(t *testing.T) {
	setEnv(t, map[string]string{"REFRESH_STRATEGY": "none"})
	a := build(t)
	require.Empty(t, a.Background())

	resp := register(t, a)
	require.Nil(t, resp.RefreshToken)
	_, err := a.Deps.Sessions.Refresh(context.Background(), resp.PrincipalID, "anything")
	require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
}

func TestBuildRedisStrategy(t *testing.T) {
	mr := miniredis.RunT(t)
	setEnv(t, map[string]string{"REFRESH_STRATEGY": "redis", "REDIS_URL": "redis://" + mr.Addr()})
	a := build(t)

	resp := register(t, a)
	require.True(t, mr.Exists("refresh:"+resp.PrincipalID))
}

func TestBuildRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	setEnv(t, map[string]string{"REFRESH_STRATEGY": "redis", "REDIS_URL": "redis://" + addr})

	_, err := app.Build(context.Background(), config.New())
	require.ErrorIs(t, err, autherrors.ErrStoreUnavailable)
}

func TestBuildRequiresSecret(t *testing.T) {
	setEnv(t, map[string]string{"JWT_SECRET": ""})
	_, err := app.Build(context.Background(), config.New())
	require.Error(t, err)
}

func TestBuildRejectsUnknownHasher(t *testing.T) {
	setEnv(t, map[string]string{"PASSWORD_HASHER": "md5"})
	_, err := app.Build(context.Background(), config.New())
	require.Error(t, err)
}

func TestBuildBootstrapsAdmin(t *testing.T) {
	setEnv(t, map[string]string{"ADMIN_EMAIL": "Root@X.com", "ADMIN_PASSWORD": testPassword})
	a := build(t)

	admin, err := a.Users.FindByEmail(context.Background(), "root@x.com")
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, admin.Role)

	resp, err := a.Deps.Auth.Login(context.Background(), "root@x.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, resp.Role)
}

func TestBuildHTTPNotifier(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	setEnv(t, map[string]string{"REGISTRATION_SERVICE_URL": srv.URL})
	a := build(t)

	register(t, a)
	require.EqualValues(t, 1, calls.Load())
}
