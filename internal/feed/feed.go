// Package feed keeps one parent's comment list in step with the server while
// showing the viewer's own posts before the server confirms them.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/evcraddock/pmfeed/internal/client"
	"github.com/evcraddock/pmfeed/internal/comment"
	"github.com/evcraddock/pmfeed/internal/notify"
	"github.com/evcraddock/pmfeed/internal/session"
)

var (
	// ErrEmptyContent is returned when the text is blank after trimming. No request is made.
	ErrEmptyContent = errors.New("comment content is empty")

	// ErrDeleteInProgress is returned when the comment is already being deleted.
	ErrDeleteInProgress = errors.New("comment delete already in progress")
)

// Messages written to the error slot and the notification sink.
const (
	MsgUnidentified = "Could not identify your account."
	MsgLoadFailed   = "Failed to load comments."
	MsgPostFailed   = "Failed to post comment. Please try again."
	MsgUpdateFailed = "Failed to update comment."
	MsgDeleteFailed = "Failed to delete comment."
	MsgPosted       = "Comment posted."
	MsgUpdated      = "Comment updated."
	MsgDeleted      = "Comment deleted."
)

// API is the subset of the REST client the feed needs.
type API interface {
	ListComments(ctx context.Context, parent comment.Parent) ([]comment.Raw, error)
	CreateComment(ctx context.Context, req client.CreateCommentRequest) (comment.Comment, error)
	UpdateComment(ctx context.Context, kind comment.ParentKind, id int64, content string) (comment.Comment, error)
	DeleteComment(ctx context.Context, kind comment.ParentKind, id int64) error
}

// AuthorResolver yields the numeric author id of the current viewer.
type AuthorResolver interface {
	AuthorID(ctx context.Context) (int64, error)
}

// Deps are the collaborators of a Feed. API and Authors are required.
type Deps struct {
	API      API
	Authors  AuthorResolver
	Sessions session.Provider
	Notifier notify.Sink

	// OnChange runs after a post, edit or delete has been confirmed.
	OnChange func()

	// OnLoad runs after a load has been applied, with the resulting list.
	// It is called without the feed's lock held.
	OnLoad func([]comment.Comment)

	Now    func() time.Time
	Logger *slog.Logger
}

type entryState int

const (
	stateConfirmed entryState = iota
	statePending              // create request in flight
	statePosted               // create confirmed, waiting for a load that includes it
)

type entry struct {
	c     comment.Comment
	state entryState

	// confirmedSeq is the load sequence at confirmation time. Only loads
	// started after it are guaranteed to contain the comment.
	confirmedSeq uint64
}

// Entry is one row of the feed as shown to the viewer.
type Entry struct {
	comment.Comment

	// Pending is set while the create request is in flight.
	Pending bool
	// Deleting is set while a delete request for the comment is in flight.
	Deleting bool
}

// Feed is the comment list for one parent. It is safe for concurrent use;
// network calls are made without holding the lock.
type Feed struct {
	api      API
	authors  AuthorResolver
	sessions session.Provider
	notifier notify.Sink
	onChange func()
	onLoad   func([]comment.Comment)
	now      func() time.Time
	log      *slog.Logger

	mu          sync.Mutex
	parent      comment.Parent
	entries     []entry
	deleting    map[int64]bool
	draft       string
	errMsg      string
	loadSeq     uint64
	placeholder int64
}

// New creates a feed for parent. Nothing is fetched until Load.
func New(parent comment.Parent, deps Deps) *Feed {
	f := &Feed{
		api:      deps.API,
		authors:  deps.Authors,
		sessions: deps.Sessions,
		notifier: deps.Notifier,
		onChange: deps.OnChange,
		onLoad:   deps.OnLoad,
		now:      deps.Now,
		log:      deps.Logger,
		parent:   parent,
		deleting: make(map[int64]bool),
	}
	if f.notifier == nil {
		f.notifier = notify.Discard
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.log == nil {
		f.log = slog.Default()
	}
	return f
}

// Parent returns the parent the feed currently shows.
func (f *Feed) Parent() comment.Parent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parent
}

// SetParent switches the feed to another parent. The list, draft and error
// slot are cleared and responses to loads already in flight are discarded.
func (f *Feed) SetParent(parent comment.Parent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if parent == f.parent {
		return
	}
	f.parent = parent
	f.entries = nil
	f.deleting = make(map[int64]bool)
	f.draft = ""
	f.errMsg = ""
	f.loadSeq++
}

// Load fetches the parent's comments and replaces the list with them.
// Create requests still in flight stay at the end of the list.
// On failure the current list is kept and the error slot is set.
// A response is dropped if a newer load has started or the parent changed.
func (f *Feed) Load(ctx context.Context) error {
	f.mu.Lock()
	f.loadSeq++
	seq := f.loadSeq
	parent := f.parent
	f.mu.Unlock()

	raws, err := f.api.ListComments(ctx, parent)
	if err != nil {
		f.mu.Lock()
		current := seq == f.loadSeq && parent == f.parent
		if current {
			f.errMsg = MsgLoadFailed
		}
		f.mu.Unlock()

		f.log.Debug("comment load failed", "parent", parent.String(), "seq", seq, "error", err)
		if current {
			f.notifier.Notify(MsgLoadFailed, notify.Error)
		}
		return fmt.Errorf("loading comments for %s: %w", parent, err)
	}

	comments := comment.Canonicalize(raws, parent)

	f.mu.Lock()
	if seq != f.loadSeq || parent != f.parent {
		f.log.Debug("discarding stale comment load", "parent", parent.String(), "seq", seq, "latest", f.loadSeq)
		f.mu.Unlock()
		return nil
	}
	f.apply(seq, comments)
	f.log.Debug("applied comment load", "parent", parent.String(), "seq", seq, "count", len(comments))
	var snapshot []comment.Comment
	if f.onLoad != nil {
		snapshot = f.snapshot()
	}
	f.mu.Unlock()

	if f.onLoad != nil {
		f.onLoad(snapshot)
	}
	return nil
}

// apply replaces the list with comments from the load numbered seq. Caller holds mu.
func (f *Feed) apply(seq uint64, comments []comment.Comment) {
	onServer := make(map[int64]bool, len(comments))
	next := make([]entry, 0, len(comments)+1)
	for _, c := range comments {
		if c.ID != 0 && onServer[c.ID] {
			continue
		}
		onServer[c.ID] = true
		next = append(next, entry{c: c})
	}

	for _, e := range f.entries {
		switch e.state {
		case statePending:
			next = append(next, e)
		case statePosted:
			if seq <= e.confirmedSeq && !onServer[e.c.ID] {
				next = append(next, e)
			}
		}
	}
	f.entries = next
}

// Post submits content as the viewer's comment. The comment is shown at the
// end of the list immediately. On failure it is removed again and content is
// put back into the draft.
func (f *Feed) Post(ctx context.Context, content string) (comment.Comment, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return comment.Comment{}, ErrEmptyContent
	}

	f.mu.Lock()
	f.errMsg = ""
	f.mu.Unlock()

	authorID, err := f.authors.AuthorID(ctx)
	if err != nil {
		f.setError(MsgUnidentified)
		return comment.Comment{}, fmt.Errorf("posting comment: %w", err)
	}

	author := f.viewerName()
	now := f.now().UTC()
	f.mu.Lock()
	parent := f.parent
	f.placeholder--
	placeholderID := f.placeholder
	optimistic := comment.Comment{
		ID:         placeholderID,
		Content:    text,
		AuthorName: author,
		CreatedAt:  &now,
		UpdatedAt:  &now,
	}
	ref := parent.ID
	if parent.Kind == comment.ParentTask {
		optimistic.TaskID = &ref
	} else {
		optimistic.ProjectID = &ref
	}
	f.entries = append(f.entries, entry{c: optimistic, state: statePending})
	f.draft = ""
	f.mu.Unlock()

	created, err := f.api.CreateComment(ctx, client.CreateCommentRequest{
		Content:  text,
		Parent:   parent,
		AuthorID: authorID,
	})
	if err != nil {
		f.mu.Lock()
		f.remove(placeholderID)
		if parent == f.parent {
			f.draft = content
			f.errMsg = MsgPostFailed
		}
		f.mu.Unlock()

		f.log.Debug("comment post failed", "parent", parent.String(), "placeholder", placeholderID, "error", err)
		f.notifier.Notify(MsgPostFailed, notify.Error)
		return comment.Comment{}, fmt.Errorf("creating comment: %w", err)
	}

	f.mu.Lock()
	stillHere := parent == f.parent
	for i := range f.entries {
		if f.entries[i].c.ID != placeholderID {
			continue
		}
		f.entries[i].state = statePosted
		f.entries[i].confirmedSeq = f.loadSeq
		if created.ID != 0 {
			f.entries[i].c.ID = created.ID
		}
		break
	}
	f.mu.Unlock()

	if stillHere {
		// The post stands even if the refresh fails; the error slot reports it.
		_ = f.Load(ctx)
	}
	f.changed()
	f.notifier.Notify(MsgPosted, notify.Success)
	return created, nil
}

// Edit replaces the content of comment id and reloads the list.
func (f *Feed) Edit(ctx context.Context, id int64, content string) (comment.Comment, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return comment.Comment{}, ErrEmptyContent
	}

	f.mu.Lock()
	kind := f.parent.Kind
	f.errMsg = ""
	f.mu.Unlock()

	updated, err := f.api.UpdateComment(ctx, kind, id, text)
	if err != nil {
		f.setError(MsgUpdateFailed)
		return comment.Comment{}, fmt.Errorf("updating comment %d: %w", id, err)
	}

	_ = f.Load(ctx)
	f.changed()
	f.notifier.Notify(MsgUpdated, notify.Success)
	return updated, nil
}

// Remove deletes comment id. The comment stays in the list, flagged as
// deleting, until a load after the delete no longer returns it.
// Callers are responsible for checking that the viewer may delete.
func (f *Feed) Remove(ctx context.Context, id int64) error {
	f.mu.Lock()
	if f.deleting[id] {
		f.mu.Unlock()
		return ErrDeleteInProgress
	}
	f.deleting[id] = true
	kind := f.parent.Kind
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.deleting, id)
		f.mu.Unlock()
	}()

	if err := f.api.DeleteComment(ctx, kind, id); err != nil {
		f.setError(MsgDeleteFailed)
		return fmt.Errorf("deleting comment %d: %w", id, err)
	}

	_ = f.Load(ctx)
	f.changed()
	f.notifier.Notify(MsgDeleted, notify.Success)
	return nil
}

// Poll runs Load every interval until ctx is done. Load failures are
// reported through the error slot and polling continues.
func (f *Feed) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Load(ctx); err != nil && ctx.Err() == nil {
				f.log.Warn("polling comments", "error", err)
			}
		}
	}
}

// Entries returns a snapshot of the list in display order.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, len(f.entries))
	for i, e := range f.entries {
		out[i] = Entry{
			Comment:  e.c,
			Pending:  e.state == statePending,
			Deleting: f.deleting[e.c.ID],
		}
	}
	return out
}

// Comments returns the list without flags.
func (f *Feed) Comments() []comment.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// snapshot copies the list. Caller holds mu.
func (f *Feed) snapshot() []comment.Comment {
	out := make([]comment.Comment, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.c
	}
	return out
}

// Draft returns the compose text.
func (f *Feed) Draft() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// SetDraft replaces the compose text.
func (f *Feed) SetDraft(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = s
}

// Err returns the active error message, or "" when there is none.
func (f *Feed) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// DismissError clears the error slot.
func (f *Feed) DismissError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errMsg = ""
}

// setError fills the error slot and sends msg to the notifier.
func (f *Feed) setError(msg string) {
	f.mu.Lock()
	f.errMsg = msg
	f.mu.Unlock()
	f.notifier.Notify(msg, notify.Error)
}

// remove drops the entry with the given id. Caller holds mu.
func (f *Feed) remove(id int64) {
	for i, e := range f.entries {
		if e.c.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return
		}
	}
}

// viewerName is the author shown on unconfirmed posts.
func (f *Feed) viewerName() string {
	var sess session.Session
	if f.sessions != nil {
		sess, _ = f.sessions.Current()
	}
	return sess.DisplayName()
}

func (f *Feed) changed() {
	if f.onChange != nil {
		f.onChange()
	}
}
