package repofake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory users.Repo. Records are copied in and out so
// callers cannot mutate stored state.
type FakeUserRepo struct {
	users    map[string]users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
	nowFunc  func() time.Time
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]users.User),
		emailIds: make(map[string]string),
		nowFunc:  time.Now,
	}
}

func (ur *FakeUserRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("[FakeUserRepo.FindByEmail] %w", autherrors.ErrNotFound)
	}
	u := ur.users[id]
	return &u, nil
}

func (ur *FakeUserRepo) FindByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, fmt.Errorf("[FakeUserRepo.FindByID] %w", autherrors.ErrNotFound)
	}
	return &u, nil
}

func (ur *FakeUserRepo) Insert(_ context.Context, user *users.User) (string, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email := users.NormalizeEmail(user.Email)
	if _, ok := ur.emailIds[email]; ok {
		return "", fmt.Errorf("[FakeUserRepo.Insert] %w", autherrors.ErrDuplicateIdentity)
	}
	u := *user
	u.Email = email
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if _, ok := ur.users[u.ID]; ok {
		return "", fmt.Errorf("[FakeUserRepo.Insert] id %s: %w", u.ID, autherrors.ErrDuplicateIdentity)
	}
	now := ur.nowFunc()
	u.CreatedAt, u.UpdatedAt = now, now

	ur.users[u.ID] = u
	ur.emailIds[email] = u.ID
	return u.ID, nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return nil
	}
	delete(ur.emailIds, u.Email)
	delete(ur.users, id)
	return nil
}

// Len returns the number of stored users.
func (ur *FakeUserRepo) Len() int {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users)
}
