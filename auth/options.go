package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-session-auth/token/refresh"
)

const (
	defaultAccessTokenTTL   = time.Hour
	defaultOperationTimeout = 5 * time.Second
	tokenTypeBearer         = "Bearer"
)

// settings shared by AuthenticationService and SessionRefresher.
type settings struct {
	refresh   *refresh.Manager
	notifier  Notifier
	accessTTL time.Duration
	opTimeout time.Duration
}

type Option func(*settings)

// WithRefreshManager enables refresh tokens. Without it no refresh token is
// issued and every Refresh fails.
func WithRefreshManager(m *refresh.Manager) Option {
	return func(s *settings) { s.refresh = m }
}

// WithNotifier confirms each registration with a downstream service.
func WithNotifier(n Notifier) Option {
	return func(s *settings) { s.notifier = n }
}

func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithOperationTimeout bounds each store round trip.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{accessTTL: defaultAccessTokenTTL, opTimeout: defaultOperationTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}
