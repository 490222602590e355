package auth

import (
	"context"
	"errors"
	"fmt"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/metrics"
	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/rs/zerolog/log"
)

// SessionRefresher exchanges refresh tokens for access tokens and ends sessions.
type SessionRefresher struct {
	settings
	users  users.Repo
	issuer *token.Issuer
}

func NewSessionRefresher(repo users.Repo, issuer *token.Issuer, opts ...Option) (*SessionRefresher, error) {
	if repo == nil {
		return nil, errors.New("[NewSessionRefresher] users repo is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewSessionRefresher] token issuer is required")
	}
	return &SessionRefresher{settings: newSettings(opts), users: repo, issuer: issuer}, nil
}

// Refresh mints a new access token for principalID if presented matches the
// live refresh record. The role is re-read from the user record so role changes
// apply without a new login. With rotation enabled the refresh token is replaced
// too; otherwise the presented one is returned unchanged.
func (r *SessionRefresher) Refresh(ctx context.Context, principalID, presented string) (resp *TokenResponse, err error) {
	defer func() { metrics.RefreshesTotal.WithLabelValues(outcome(err)).Inc() }()

	if r.refresh == nil {
		return nil, fmt.Errorf("[SessionRefresher.Refresh] refresh tokens disabled: %w", autherrors.ErrInvalidRefreshToken)
	}
	if principalID == "" || presented == "" {
		return nil, fmt.Errorf("[SessionRefresher.Refresh] %w", autherrors.ErrInvalidRefreshToken)
	}

	validateCtx, cancel := r.bounded(ctx)
	err = r.refresh.Validate(validateCtx, principalID, presented)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("[SessionRefresher.Refresh] %w", err)
	}

	findCtx, cancel := r.bounded(ctx)
	user, err := r.users.FindByID(findCtx, principalID)
	cancel()
	if errors.Is(err, autherrors.ErrNotFound) {
		return nil, fmt.Errorf("[SessionRefresher.Refresh] principal gone: %w", autherrors.ErrInvalidRefreshToken)
	}
	if err != nil {
		return nil, fmt.Errorf("[SessionRefresher.Refresh] %w", err)
	}

	next := presented
	if r.refresh.Rotates() {
		rotateCtx, cancel := r.bounded(ctx)
		next, err = r.refresh.Rotate(rotateCtx, principalID, presented)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("[SessionRefresher.Refresh] %w", err)
		}
	}

	access, err := r.issuer.Issue(user.ID, user.Role, r.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("[SessionRefresher.Refresh] %w", err)
	}
	log.Debug().Str("principal_id", user.ID).Bool("rotated", next != presented).Msg("session refreshed")
	return &TokenResponse{
		AccessToken:  access,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(r.accessTTL.Seconds()),
		RefreshToken: utils.Ptr(next),
		PrincipalID:  user.ID,
		Role:         user.Role,
	}, nil
}

// Logout deletes the principal's refresh record. It succeeds whether or not a
// record existed; only a store failure is reported.
func (r *SessionRefresher) Logout(ctx context.Context, principalID string) error {
	if r.refresh == nil {
		return nil
	}
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	if err := r.refresh.Revoke(ctx, principalID); err != nil {
		return fmt.Errorf("[SessionRefresher.Logout] %w", err)
	}
	log.Info().Str("principal_id", principalID).Msg("principal logged out")
	return nil
}
