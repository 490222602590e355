package auth

import (
	"context"
	"errors"
	"fmt"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/passwords"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/rs/zerolog/log"
)

// EnsureAdmin creates an admin principal for email unless a user with that email
// already exists. It reports whether a user was created. Admins are only ever
// created here, never through Register.
func EnsureAdmin(ctx context.Context, repo users.Repo, hasher passwords.Hasher, email, password string) (bool, error) {
	email = users.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, fmt.Errorf("[auth.EnsureAdmin] email and password are required: %w", autherrors.ErrInvalidInput)
	}

	existing, err := repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != users.RoleAdmin {
			log.Warn().Str("principal_id", existing.ID).Str("role", existing.Role.String()).Msg("admin email belongs to a non-admin user")
		}
		return false, nil
	}
	if !errors.Is(err, autherrors.ErrNotFound) {
		return false, fmt.Errorf("[auth.EnsureAdmin] %w", err)
	}

	digest, err := hasher.Hash(ctx, password)
	if err != nil {
		return false, fmt.Errorf("[auth.EnsureAdmin] %w", err)
	}
	id, err := repo.Insert(ctx, &users.User{Email: email, Username: "admin", PasswordHash: digest, Role: users.RoleAdmin})
	if errors.Is(err, autherrors.ErrDuplicateIdentity) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("[auth.EnsureAdmin] %w", err)
	}
	log.Info().Str("principal_id", id).Msg("admin principal created")
	return true, nil
}
