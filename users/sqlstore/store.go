package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

const selectUser = `select id, email, username, password_hash, role, created_at, updated_at from users`

var _ users.Repo = (*Store)(nil)

// Store is a PostgreSQL users.Repo.
type Store struct {
	db      *sql.DB
	nowFunc func() time.Time
}

type Option func(*Store)

// WithNowFunc sets the clock used for created_at and updated_at.
func WithNowFunc(f func() time.Time) Option {
	return func(s *Store) { s.nowFunc = f }
}

// Open connects through the pgx stdlib driver. The connection is lazy; call
// EnsureSchema or Ping to surface a bad DSN.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("[sqlstore.Open] %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db, opts...), nil
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, nowFunc: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return classify("[Store.Ping]", s.db.PingContext(ctx))
}

// EnsureSchema creates the users table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return classify("[Store.EnsureSchema]", err)
	}
	return nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` where email = $1`, users.NormalizeEmail(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, classify("[Store.FindByEmail]", err)
	}
	return u, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*users.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` where id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("[Store.FindByID] id %s", id), err)
	}
	return u, nil
}

func (s *Store) Insert(ctx context.Context, user *users.User) (string, error) {
	id := user.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := s.nowFunc().UTC()
	_, err := s.db.ExecContext(ctx,
		`insert into users (id, email, username, password_hash, role, created_at, updated_at)
		 values ($1, $2, $3, $4, $5, $6, $7)`,
		id, users.NormalizeEmail(user.Email), user.Username, user.PasswordHash, string(user.Role), now, now)
	if err != nil {
		return "", classify("[Store.Insert]", err)
	}
	return id, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id); err != nil {
		return classify(fmt.Sprintf("[Store.Delete] id %s", id), err)
	}
	return nil
}

func scanUser(row *sql.Row) (*users.User, error) {
	var (
		u    users.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = users.Role(role)
	return &u, nil
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, autherrors.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %w", op, autherrors.ErrDuplicateIdentity)
	default:
		return autherrors.Unavailable(op, err)
	}
}
