package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/metrics"
	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/jrsteele09/go-session-auth/passwords"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/rs/zerolog/log"
)

// errLoginFailed is the one error Login returns for an unknown email or a wrong password.
var errLoginFailed = fmt.Errorf("[AuthenticationService.Login] %w", autherrors.ErrInvalidCredentials)

type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     string // Empty selects the standard role
}

// AuthenticationService registers principals and logs them in.
type AuthenticationService struct {
	settings
	users  users.Repo
	hasher passwords.Hasher
	issuer *token.Issuer

	decoyOnce   sync.Once
	decoyDigest string
}

func NewAuthenticationService(repo users.Repo, hasher passwords.Hasher, issuer *token.Issuer, opts ...Option) (*AuthenticationService, error) {
	if repo == nil {
		return nil, errors.New("[NewAuthenticationService] users repo is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewAuthenticationService] password hasher is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewAuthenticationService] token issuer is required")
	}
	return &AuthenticationService{
		settings: newSettings(opts),
		users:    repo,
		hasher:   hasher,
		issuer:   issuer,
	}, nil
}

// Register creates a principal with a self-service role and starts its session.
// The user insert, refresh record and downstream confirmation form one unit:
// if a later step fails the earlier ones are undone.
func (s *AuthenticationService) Register(ctx context.Context, req RegisterRequest) (resp *TokenResponse, err error) {
	defer func() { metrics.RegistrationsTotal.WithLabelValues(outcome(err)).Inc() }()

	role, err := users.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("[AuthenticationService.Register] %w", err)
	}
	if !role.SelfService() {
		return nil, fmt.Errorf("[AuthenticationService.Register] role %s: %w", role, autherrors.ErrInvalidRole)
	}
	email := users.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("[AuthenticationService.Register] email and password are required: %w", autherrors.ErrInvalidInput)
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, fmt.Errorf("[AuthenticationService.Register] %w", err)
	}

	insertCtx, cancel := s.bounded(ctx)
	id, err := s.users.Insert(insertCtx, &users.User{
		Email:        email,
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: digest,
		Role:         role,
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("[AuthenticationService.Register] %w", err)
	}

	resp, err = s.startSession(ctx, id, role)
	if err != nil {
		// The store may have applied the write before failing
		s.compensate(ctx, id, s.refresh != nil)
		return nil, fmt.Errorf("[AuthenticationService.Register] %w", err)
	}

	if s.notifier != nil {
		notifyCtx, cancel := s.bounded(ctx)
		err = s.notifier.NotifyRegistration(notifyCtx, Registration{
			FullName:   strings.TrimSpace(req.Username),
			Email:      email,
			Password:   req.Password,
			AuthUserID: id,
		})
		cancel()
		if err != nil {
			s.compensate(ctx, id, resp.RefreshToken != nil)
			return nil, fmt.Errorf("[AuthenticationService.Register] %w: %w", autherrors.ErrDownstreamRegistration, err)
		}
	}

	log.Info().Str("principal_id", id).Str("role", role.String()).Msg("principal registered")
	return resp, nil
}

// Login authenticates email and password and replaces any existing session.
func (s *AuthenticationService) Login(ctx context.Context, email, password string) (resp *TokenResponse, err error) {
	defer func() { metrics.LoginsTotal.WithLabelValues(outcome(err)).Inc() }()

	findCtx, cancel := s.bounded(ctx)
	user, err := s.users.FindByEmail(findCtx, users.NormalizeEmail(email))
	cancel()
	if errors.Is(err, autherrors.ErrNotFound) {
		s.burnVerify(ctx, password)
		return nil, errLoginFailed
	}
	if err != nil {
		return nil, fmt.Errorf("[AuthenticationService.Login] %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("[AuthenticationService.Login] principal %s: %w", user.ID, err)
	}
	if !ok {
		return nil, errLoginFailed
	}

	resp, err = s.startSession(ctx, user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("[AuthenticationService.Login] %w", err)
	}
	log.Info().Str("principal_id", user.ID).Msg("principal logged in")
	return resp, nil
}

func (s *AuthenticationService) ensureEmailFree(ctx context.Context, email string) error {
	findCtx, cancel := s.bounded(ctx)
	defer cancel()
	_, err := s.users.FindByEmail(findCtx, email)
	switch {
	case err == nil:
		return fmt.Errorf("[AuthenticationService.Register] %w", autherrors.ErrDuplicateIdentity)
	case errors.Is(err, autherrors.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("[AuthenticationService.Register] %w", err)
	}
}

// startSession issues an access token and, when enabled, a refresh token that
// supersedes any earlier one for the principal.
func (s *AuthenticationService) startSession(ctx context.Context, principalID string, role users.Role) (*TokenResponse, error) {
	access, err := s.issuer.Issue(principalID, role, s.accessTTL)
	if err != nil {
		return nil, err
	}
	resp := &TokenResponse{
		AccessToken: access,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		PrincipalID: principalID,
		Role:        role,
	}
	if s.refresh == nil {
		return resp, nil
	}

	putCtx, cancel := s.bounded(ctx)
	defer cancel()
	rt, err := s.refresh.Create(putCtx, principalID)
	if err != nil {
		return nil, err
	}
	resp.RefreshToken = utils.Ptr(rt)
	return resp, nil
}

// compensate undoes a partial registration. Failures are logged with the
// principal id so an operator can remove the orphan.
func (s *AuthenticationService) compensate(ctx context.Context, principalID string, revoke bool) {
	ctx, cancel := s.bounded(context.WithoutCancel(ctx))
	defer cancel()

	if revoke && s.refresh != nil {
		if err := s.refresh.Revoke(ctx, principalID); err != nil {
			log.Error().Err(err).Str("principal_id", principalID).Msg("registration rollback: refresh record not removed")
		}
	}
	if err := s.users.Delete(ctx, principalID); err != nil {
		log.Error().Err(err).Str("principal_id", principalID).Msg("registration rollback: orphaned user record")
		return
	}
	log.Warn().Str("principal_id", principalID).Msg("registration rolled back")
}

// burnVerify spends a verify on a throwaway digest so unknown emails take as
// long as wrong passwords.
func (s *AuthenticationService) burnVerify(ctx context.Context, password string) {
	s.decoyOnce.Do(func() {
		b := make([]byte, 16)
		if _, err := rand.Read(b); err != nil {
			return
		}
		if d, err := s.hasher.Hash(context.WithoutCancel(ctx), hex.EncodeToString(b)); err == nil {
			s.decoyDigest = d
		}
	})
	if s.decoyDigest != "" {
		_, _ = s.hasher.Verify(ctx, password, s.decoyDigest)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, autherrors.ErrStoreUnavailable),
		errors.Is(err, autherrors.ErrTimeout),
		errors.Is(err, autherrors.ErrHashingError),
		errors.Is(err, autherrors.ErrDownstreamRegistration):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeFailure
	}
}
