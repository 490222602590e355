package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/passwords"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/token/refresh"
	"github.com/jrsteele09/go-session-auth/token/refresh/memstore"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/jrsteele09/go-session-auth/users/repofake"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "Str0ng!Pw"
)

type testFixture struct {
	users  *repofake.FakeUserRepo
	hasher passwords.Hasher
	server *server.Server
}

type fixtureOptions struct {
	rateLimit      bool
	trustedProxies string
	signer         token.Signer
}

func setupTestFixture(t *testing.T, fo fixtureOptions) *testFixture {
	t.Helper()

	t.Setenv("ENV", "TEST")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	if fo.rateLimit {
		t.Setenv("RATE_LIMIT_ENABLED", "true")
		t.Setenv("RATE_LIMIT_PER_SECOND", "1")
		t.Setenv("RATE_LIMIT_BURST", "1")
	}
	t.Setenv("TRUSTED_PROXIES", fo.trustedProxies)

	signer := fo.signer
	if signer == nil {
		signer = token.NewHMACSigner(testSecret)
	}

	f := &testFixture{
		users:  repofake.NewFakeUserRepo(),
		hasher: passwords.NewBcryptHasher(bcrypt.MinCost),
	}
	issuer := token.NewIssuer(signer)
	opts := []auth.Option{
		auth.WithRefreshManager(refresh.NewManager(memstore.New(), refresh.WithTTL(time.Hour))),
		auth.WithAccessTokenTTL(15 * time.Minute),
	}
	authService, err := auth.NewAuthenticationService(f.users, f.hasher, issuer, opts...)
	require.NoError(t, err)
	sessions, err := auth.NewSessionRefresher(f.users, issuer, opts...)
	require.NoError(t, err)

	f.server, err = server.New(config.New(), server.Deps{
		Auth:     authService,
		Sessions: sessions,
		Gate:     auth.NewAccessGate(issuer),
		Issuer:   issuer,
	})
	require.NoError(t, err)
	return f
}

func (f *testFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) register(t *testing.T, email, role string) auth.TokenResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
		"username": "alice1",
		"email":    email,
		"password": testPassword,
		"role":     role,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[auth.TokenResponse](t, rec)
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := server.New(config.New(), server.Deps{})
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})

	resp := f.register(t, "a@x.com", "")
	require.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.RefreshToken)
	require.NotEmpty(t, resp.PrincipalID)
	require.Equal(t, users.RoleStandard, resp.Role)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, 1, f.users.Len())

	rec := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
		"username": "alice2", "email": "A@x.com", "password": testPassword,
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "duplicate_identity", decode[errorBody](t, rec).Error)
}

func TestRegisterValidation(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})

	rec := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
		"username": "a!", "email": "not-an-email", "password": "weak",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	require.Equal(t, "invalid_input", body.Error)
	require.Contains(t, body.Fields, "username")
	require.Contains(t, body.Fields, "email")
	require.Contains(t, body.Fields, "password")

	rec = f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
		"username": "alice1", "email": "a@x.com", "password": testPassword, "extra": "x",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, server.RouteRegister, nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, f.users.Len())
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})

	rec := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
		"username": "mallory", "email": "m@x.com", "password": testPassword, "role": "admin",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_role", decode[errorBody](t, rec).Error)
	require.Zero(t, f.users.Len())
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	registered := f.register(t, "a@x.com", "organization")

	rec := f.do(t, http.MethodPost, server.RouteLogin, map[string]string{"email": "a@x.com", "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[auth.TokenResponse](t, rec)
	require.Equal(t, registered.PrincipalID, resp.PrincipalID)
	require.Equal(t, users.RoleOrganization, resp.Role)

	wrongPassword := f.do(t, http.MethodPost, server.RouteLogin, map[string]string{"email": "a@x.com", "password": "Wr0ng!Pw"}, nil)
	unknownEmail := f.do(t, http.MethodPost, server.RouteLogin, map[string]string{"email": "b@x.com", "password": testPassword}, nil)
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestRefreshAndLogout(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	registered := f.register(t, "a@x.com", "")

	refreshBody := map[string]string{"principal_id": registered.PrincipalID, "refresh_token": *registered.RefreshToken}
	rec := f.do(t, http.MethodPost, server.RouteRefresh, refreshBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decode[auth.TokenResponse](t, rec)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, *registered.RefreshToken, *refreshed.RefreshToken)

	rec = f.do(t, http.MethodPost, server.RouteRefresh, map[string]string{
		"principal_id": registered.PrincipalID, "refresh_token": "forged",
	}, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "invalid_refresh_token", decode[errorBody](t, rec).Error)

	rec = f.do(t, http.MethodPost, server.RouteLogout, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, server.RouteLogout, nil, bearer(registered.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, server.RouteLogout, nil, bearer(registered.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, server.RouteRefresh, refreshBody, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProfile(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	registered := f.register(t, "a@x.com", "")

	rec := f.do(t, http.MethodGet, server.RouteProfile, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = f.do(t, http.MethodGet, server.RouteProfile, nil, map[string]string{"Authorization": "Basic abc"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, server.RouteProfile, nil, bearer("not.a.token"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, server.RouteProfile, nil, bearer(registered.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		User auth.Principal `json:"user"`
	}](t, rec)
	require.Equal(t, registered.PrincipalID, body.User.ID)
	require.Equal(t, users.RoleStandard, body.User.Role)
}

func TestRoleRoutes(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	standard := f.register(t, "s@x.com", "standard")

	created, err := auth.EnsureAdmin(context.Background(), f.users, f.hasher, "root@x.com", testPassword)
	require.NoError(t, err)
	require.True(t, created)
	rec := f.do(t, http.MethodPost, server.RouteLogin, map[string]string{"email": "root@x.com", "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	admin := decode[auth.TokenResponse](t, rec)

	tests := []struct {
		name   string
		route  string
		token  string
		status int
	}{
		{"admin on admin route", server.RouteAdminOnly, admin.AccessToken, http.StatusOK},
		{"standard on admin route", server.RouteAdminOnly, standard.AccessToken, http.StatusForbidden},
		{"standard on standard route", server.RouteStandardOnly, standard.AccessToken, http.StatusOK},
		{"admin on standard route", server.RouteStandardOnly, admin.AccessToken, http.StatusForbidden},
		{"standard on organization route", server.RouteOrganizationOnly, standard.AccessToken, http.StatusForbidden},
		{"anonymous on admin route", server.RouteAdminOnly, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers map[string]string
			if tt.token != "" {
				headers = bearer(tt.token)
			}
			rec := f.do(t, http.MethodGet, tt.route, nil, headers)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRateLimit(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{rateLimit: true})
	body := map[string]string{"email": "a@x.com", "password": testPassword}

	rec := f.do(t, http.MethodPost, server.RouteLogin, body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, server.RouteLogin, body, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A forged X-Forwarded-For from an untrusted peer shares the socket's bucket
	rec = f.do(t, http.MethodPost, server.RouteLogin, body, map[string]string{"X-Forwarded-For": "203.0.113.9"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitBehindTrustedProxy(t *testing.T) {
	// httptest requests arrive from 192.0.2.1
	f := setupTestFixture(t, fixtureOptions{rateLimit: true, trustedProxies: "192.0.2.0/24"})
	body := map[string]string{"email": "a@x.com", "password": testPassword}
	from := func(xff string) map[string]string {
		return map[string]string{"X-Forwarded-For": xff}
	}

	rec := f.do(t, http.MethodPost, server.RouteLogin, body, from("203.0.113.9"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, server.RouteLogin, body, from("203.0.113.9"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client behind the proxy has its own bucket
	rec = f.do(t, http.MethodPost, server.RouteLogin, body, from("198.51.100.7"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Entries left of the first untrusted hop are client supplied and ignored
	rec = f.do(t, http.MethodPost, server.RouteLogin, body, from("10.9.9.9, 203.0.113.9, 192.0.2.50"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})

	rec := f.do(t, http.MethodOptions, server.RouteLogin, nil, map[string]string{"Origin": "https://app.example.com"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = f.do(t, http.MethodOptions, server.RouteLogin, nil, map[string]string{"Origin": "https://evil.example.com"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})

	rec := f.do(t, http.MethodGet, server.RouteProfile, nil, nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, server.RouteProfile, nil, map[string]string{"X-Request-ID": "req-123"})
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestJWKS(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	rec := f.do(t, http.MethodGet, server.RouteWellKnownJWKS, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	kp, err := token.GenerateECDSAKeyPair("kid-1")
	require.NoError(t, err)
	f = setupTestFixture(t, fixtureOptions{signer: token.NewKeyPairSigner(kp)})
	rec = f.do(t, http.MethodGet, server.RouteWellKnownJWKS, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jwks := decode[token.JWKS](t, rec)
	require.Len(t, jwks.Keys, 1)

	registered := f.register(t, "a@x.com", "")
	rec = f.do(t, http.MethodGet, server.RouteProfile, nil, bearer(registered.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	rec := f.do(t, http.MethodGet, server.RouteHealth, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupTestFixture(t, fixtureOptions{})
	h := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, f.server.RequestIDMiddleware, f.server.RecoverMiddleware)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "internal_error", decode[errorBody](t, rec).Error)
}
