package users

import "context"

// Repo is the credential store consumed by the auth services. Emails passed in
// are already normalised. Missing records surface as errors.ErrNotFound, a taken
// email as errors.ErrDuplicateIdentity, and backend failures as errors.ErrStoreUnavailable.
type Repo interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// Insert stores a new user and returns its id, assigning one when user.ID is empty.
	Insert(ctx context.Context, user *User) (string, error)
	// Delete removes a user; only registration compensation calls it.
	Delete(ctx context.Context, id string) error
}
