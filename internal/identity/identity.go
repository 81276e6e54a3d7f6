// Package identity maps the logged-in session to the numeric author id the
// comment API expects.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/evcraddock/pmfeed/internal/session"
	"github.com/evcraddock/pmfeed/internal/user"
)

// ErrUnidentified is returned when the current viewer cannot be matched to a user.
var ErrUnidentified = errors.New("could not identify account")

// Directory lists the users known to the server.
type Directory interface {
	ListUsers(ctx context.Context) ([]*user.User, error)
}

// Resolver finds the current viewer's user id by username and caches it.
// Concurrent lookups for the same username share one directory request.
type Resolver struct {
	dir      Directory
	sessions session.Provider

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]int64
}

// NewResolver creates a resolver.
func NewResolver(dir Directory, sessions session.Provider) *Resolver {
	return &Resolver{
		dir:      dir,
		sessions: sessions,
		cache:    make(map[string]int64),
	}
}

// AuthorID returns the current viewer's user id.
func (r *Resolver) AuthorID(ctx context.Context) (int64, error) {
	sess, err := r.sessions.Current()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnidentified, err)
	}

	if id, ok := r.cached(sess.Username); ok {
		return id, nil
	}

	// The shared lookup must not fail because the caller that started it gave up.
	lookupCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(sess.Username, func() (interface{}, error) {
		if id, ok := r.cached(sess.Username); ok {
			return id, nil
		}
		return r.lookup(lookupCtx, sess.Username)
	})

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %w", ErrUnidentified, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int64), nil
	}
}

func (r *Resolver) lookup(ctx context.Context, username string) (int64, error) {
	users, err := r.dir.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: listing users: %w", ErrUnidentified, err)
	}

	for _, u := range users {
		if u.Username == username {
			r.mu.Lock()
			r.cache[username] = u.ID
			r.mu.Unlock()
			slog.Debug("resolved author id", "username", username, "id", u.ID)
			return u.ID, nil
		}
	}

	return 0, fmt.Errorf("%w: no user named %q", ErrUnidentified, username)
}

func (r *Resolver) cached(username string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.cache[username]
	return id, ok
}
