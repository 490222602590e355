package memstore

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token/refresh"
	"github.com/rs/zerolog/log"
)

var _ refresh.Store = (*Store)(nil)

type entry struct {
	digest    string
	expiresAt time.Time
}

// Store is a process-local refresh.Store. Records do not survive a restart and
// are not shared between instances.
type Store struct {
	entries map[string]entry
	lock    sync.Mutex
	nowFunc func() time.Time
}

type Option func(*Store)

func WithNowFunc(f func() time.Time) Option {
	return func(s *Store) { s.nowFunc = f }
}

func New(opts ...Option) *Store {
	s := &Store{entries: make(map[string]entry), nowFunc: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Put(_ context.Context, principalID, digest string, ttl time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[principalID] = entry{digest: digest, expiresAt: s.nowFunc().Add(ttl)}
	return nil
}

func (s *Store) Get(_ context.Context, principalID string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	e, ok := s.live(principalID)
	if !ok {
		return "", fmt.Errorf("[memstore.Get] %w", autherrors.ErrNotFound)
	}
	return e.digest, nil
}

func (s *Store) Delete(_ context.Context, principalID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.entries, principalID)
	return nil
}

func (s *Store) CompareAndSwap(_ context.Context, principalID, expected, replacement string, ttl time.Duration) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	e, ok := s.live(principalID)
	if !ok || subtle.ConstantTimeCompare([]byte(e.digest), []byte(expected)) != 1 {
		return false, nil
	}
	s.entries[principalID] = entry{digest: replacement, expiresAt: s.nowFunc().Add(ttl)}
	return true, nil
}

// live returns the unexpired entry, dropping it if expired. Callers hold the lock.
func (s *Store) live(principalID string) (entry, bool) {
	e, ok := s.entries[principalID]
	if !ok {
		return entry{}, false
	}
	if !s.nowFunc().Before(e.expiresAt) {
		delete(s.entries, principalID)
		return entry{}, false
	}
	return e, true
}

// Purge removes every expired entry and returns how many were dropped.
func (s *Store) Purge() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.nowFunc()
	n := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.entries)
}

// RunJanitor purges expired entries every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Purge(); n > 0 {
				log.Debug().Int("purged", n).Msg("expired refresh records removed")
			}
		}
	}
}
