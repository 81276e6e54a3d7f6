package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evcraddock/pmfeed/internal/session"
	"github.com/evcraddock/pmfeed/internal/user"
)

type fakeDirectory struct {
	calls atomic.Int32
	users []*user.User
	err   error
	delay time.Duration
}

func (d *fakeDirectory) ListUsers(ctx context.Context) ([]*user.User, error) {
	d.calls.Add(1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	return d.users, d.err
}

func aliceSession() session.Provider {
	return session.Static(session.Session{Token: "tok", Username: "alice"})
}

func TestAuthorIDCachesResult(t *testing.T) {
	dir := &fakeDirectory{users: []*user.User{{ID: 3, Username: "bob"}, {ID: 7, Username: "alice"}}}
	r := NewResolver(dir, aliceSession())

	for i := 0; i < 3; i++ {
		id, err := r.AuthorID(context.Background())
		if err != nil {
			t.Fatalf("author id: %v", err)
		}
		if id != 7 {
			t.Errorf("id = %d, want 7", id)
		}
	}

	if got := dir.calls.Load(); got != 1 {
		t.Errorf("directory calls = %d, want 1", got)
	}
}

func TestAuthorIDNotFound(t *testing.T) {
	dir := &fakeDirectory{users: []*user.User{{ID: 3, Username: "bob"}}}
	r := NewResolver(dir, aliceSession())

	_, err := r.AuthorID(context.Background())
	if !errors.Is(err, ErrUnidentified) {
		t.Fatalf("err = %v, want ErrUnidentified", err)
	}

	// Failures are not cached; a later lookup asks again.
	dir.users = append(dir.users, &user.User{ID: 9, Username: "alice"})
	id, err := r.AuthorID(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if id != 9 {
		t.Errorf("id = %d, want 9", id)
	}
}

func TestAuthorIDDirectoryError(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("connection refused")}
	r := NewResolver(dir, aliceSession())

	_, err := r.AuthorID(context.Background())
	if !errors.Is(err, ErrUnidentified) {
		t.Errorf("err = %v, want ErrUnidentified", err)
	}
}

func TestAuthorIDNoSession(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewResolver(dir, session.Static(session.Session{}))

	_, err := r.AuthorID(context.Background())
	if !errors.Is(err, ErrUnidentified) || !errors.Is(err, session.ErrNoSession) {
		t.Errorf("err = %v, want ErrUnidentified wrapping ErrNoSession", err)
	}
	if dir.calls.Load() != 0 {
		t.Error("expected no directory call without a session")
	}
}

func TestAuthorIDConcurrentLookupsShareRequest(t *testing.T) {
	dir := &fakeDirectory{
		users: []*user.User{{ID: 7, Username: "alice"}},
		delay: 50 * time.Millisecond,
	}
	r := NewResolver(dir, aliceSession())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if id, err := r.AuthorID(context.Background()); err != nil || id != 7 {
				t.Errorf("author id = %d, %v", id, err)
			}
		}()
	}
	wg.Wait()

	if got := dir.calls.Load(); got != 1 {
		t.Errorf("directory calls = %d, want 1", got)
	}
}

// blockingDirectory holds ListUsers until release is closed, failing early if ctx ends.
type blockingDirectory struct {
	calls   atomic.Int32
	users   []*user.User
	entered chan struct{}
	release chan struct{}
}

func (d *blockingDirectory) ListUsers(ctx context.Context) ([]*user.User, error) {
	if d.calls.Add(1) == 1 {
		close(d.entered)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.release:
		return d.users, nil
	}
}

func TestAuthorIDCanceledCallerDoesNotFailOthers(t *testing.T) {
	dir := &blockingDirectory{
		users:   []*user.User{{ID: 7, Username: "alice"}},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewResolver(dir, aliceSession())

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.AuthorID(firstCtx)
		firstErr <- err
	}()
	<-dir.entered

	type result struct {
		id  int64
		err error
	}
	second := make(chan result, 1)
	go func() {
		id, err := r.AuthorID(context.Background())
		second <- result{id, err}
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) || !errors.Is(err, ErrUnidentified) {
		t.Errorf("canceled caller: err = %v, want ErrUnidentified wrapping context.Canceled", err)
	}

	close(dir.release)
	got := <-second
	if got.err != nil || got.id != 7 {
		t.Fatalf("live caller: id = %d, err = %v; want 7, nil", got.id, got.err)
	}
	if n := dir.calls.Load(); n != 1 {
		t.Errorf("directory calls = %d, want 1", n)
	}

	// The finished lookup is cached for the next caller.
	if id, err := r.AuthorID(context.Background()); err != nil || id != 7 {
		t.Errorf("cached: id = %d, err = %v", id, err)
	}
}
