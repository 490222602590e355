package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/auth/registration"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/passwords"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/token/refresh"
	"github.com/jrsteele09/go-session-auth/token/refresh/memstore"
	"github.com/jrsteele09/go-session-auth/token/refresh/redisstore"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/jrsteele09/go-session-auth/users/repofake"
	"github.com/jrsteele09/go-session-auth/users/sqlstore"
	"github.com/rs/zerolog/log"
)

const janitorInterval = time.Minute

// App holds the process-wide components built from configuration.
type App struct {
	Users  users.Repo
	Hasher passwords.Hasher
	Issuer *token.Issuer
	Deps   server.Deps

	background []func(context.Context)
	closers    []func() error
}

// Build wires stores, signer, hasher and services from cfg. Whatever was
// opened before a failure is closed again; on success the caller owns Close.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}
	built, err := a.build(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return built, nil
}

func (a *App) build(ctx context.Context, cfg config.Config) (*App, error) {
	signer, err := token.NewSignerFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("[app.Build] %w", err)
	}
	a.Issuer = token.NewIssuer(signer, token.WithIssuerName(cfg.GetIssuer()))

	a.Hasher, err = passwords.New(cfg.GetPasswordHasher(), cfg.GetBcryptCost())
	if err != nil {
		return nil, fmt.Errorf("[app.Build] %w", err)
	}

	repo, closeRepo, err := OpenUsers(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("[app.Build] %w", err)
	}
	a.Users = repo
	a.closers = append(a.closers, closeRepo)

	opts := []auth.Option{
		auth.WithAccessTokenTTL(cfg.GetAccessTokenExpiry()),
		auth.WithOperationTimeout(cfg.GetOperationTimeout()),
	}
	manager, err := a.openRefresh(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("[app.Build] %w", err)
	}
	if manager != nil {
		opts = append(opts, auth.WithRefreshManager(manager))
	}
	notifier, err := a.openNotifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("[app.Build] %w", err)
	}
	if notifier != nil {
		opts = append(opts, auth.WithNotifier(notifier))
	}

	authService, err := auth.NewAuthenticationService(a.Users, a.Hasher, a.Issuer, opts...)
	if err != nil {
		return nil, fmt.Errorf("[app.Build] %w", err)
	}
	sessions, err := auth.NewSessionRefresher(a.Users, a.Issuer, opts...)
	if err != nil {
		return nil, fmt.Errorf("[app.Build] %w", err)
	}
	a.Deps = server.Deps{
		Auth:     authService,
		Sessions: sessions,
		Gate:     auth.NewAccessGate(a.Issuer),
		Issuer:   a.Issuer,
	}

	if email, password := cfg.GetAdminEmail(), cfg.GetAdminPassword(); email != "" && password != "" {
		if _, err := auth.EnsureAdmin(ctx, a.Users, a.Hasher, email, password); err != nil {
			return nil, fmt.Errorf("[app.Build] %w", err)
		}
	}
	return a, nil
}

// OpenUsers returns the PostgreSQL store when DATABASE_URL is set and the
// in-memory repo otherwise. The returned func releases the store.
func OpenUsers(ctx context.Context, cfg config.StoreConfig) (users.Repo, func() error, error) {
	dsn := cfg.GetDatabaseURL()
	if dsn == "" {
		log.Warn().Msg("DATABASE_URL not set, users are kept in memory")
		return repofake.NewFakeUserRepo(), func() error { return nil }, nil
	}
	store, err := sqlstore.Open(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("[app.OpenUsers] %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("[app.OpenUsers] %w", err)
	}
	return store, store.Close, nil
}

func (a *App) openRefresh(ctx context.Context, cfg config.Config) (*refresh.Manager, error) {
	opts := []refresh.Option{
		refresh.WithTTL(cfg.GetRefreshTokenExpiry()),
		refresh.WithTokenLength(cfg.GetRefreshTokenLength()),
		refresh.WithRotation(cfg.GetRefreshRotation()),
	}

	switch strategy := cfg.GetRefreshStrategy(); strategy {
	case config.RefreshStrategyNone:
		log.Info().Msg("refresh tokens disabled")
		return nil, nil

	case config.RefreshStrategyRedis:
		client, err := redisstore.NewClient(ctx, cfg.GetRedisURL())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		log.Info().Bool("rotate", cfg.GetRefreshRotation()).Msg("refresh tokens stored in redis")
		return refresh.NewManager(redisstore.New(client), opts...), nil

	default:
		store := memstore.New()
		a.background = append(a.background, func(ctx context.Context) {
			store.RunJanitor(ctx, janitorInterval)
		})
		log.Info().Bool("rotate", cfg.GetRefreshRotation()).Msg("refresh tokens stored in memory")
		return refresh.NewManager(store, opts...), nil
	}
}

// openNotifier prefers AMQP when both downstream targets are configured.
func (a *App) openNotifier(cfg config.StoreConfig) (auth.Notifier, error) {
	if url := cfg.GetRegistrationAMQPURL(); url != "" {
		n, err := registration.DialAMQP(url, cfg.GetRegistrationQueue())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, n.Close)
		return n, nil
	}
	if url := cfg.GetRegistrationServiceURL(); url != "" {
		return registration.NewHTTPNotifier(url), nil
	}
	return nil, nil
}

// Background returns the maintenance loops to run until the process stops.
func (a *App) Background() []func(context.Context) {
	return a.background
}

// Close releases every opened store and connection in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
