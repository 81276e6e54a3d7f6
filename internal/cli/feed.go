package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/evcraddock/pmfeed/internal/client"
	"github.com/evcraddock/pmfeed/internal/comment"
	"github.com/evcraddock/pmfeed/internal/feed"
	"github.com/evcraddock/pmfeed/internal/identity"
	"github.com/evcraddock/pmfeed/internal/notify"
	"github.com/evcraddock/pmfeed/internal/session"
)

// parentArg parses a positional project or task id.
func parentArg(arg string, task bool) (comment.Parent, error) {
	kind := comment.ParentProject
	if task {
		kind = comment.ParentTask
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return comment.Parent{}, fmt.Errorf("invalid %s ID: %s", kind, arg)
	}
	return comment.Parent{Kind: kind, ID: id}, nil
}

// parentFlags picks the parent from --project or --task. Exactly one must be set.
func parentFlags(projectID, taskID int64) (comment.Parent, error) {
	switch {
	case projectID > 0 && taskID > 0:
		return comment.Parent{}, fmt.Errorf("use either --project or --task, not both")
	case taskID > 0:
		return comment.TaskParent(taskID), nil
	case projectID > 0:
		return comment.ProjectParent(projectID), nil
	default:
		return comment.Parent{}, fmt.Errorf("--project or --task is required")
	}
}

// commentID parses a positional comment id.
func commentID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid comment ID: %s", arg)
	}
	return id, nil
}

// commentDeps assembles feed collaborators on top of the stored login.
// Notifications go to w: plain lines in text mode, slog JSON records in JSON mode.
func commentDeps(w io.Writer) (feed.Deps, session.Session, error) {
	sessions := currentSession()
	sess, err := sessions.Current()
	if err != nil {
		return feed.Deps{}, session.Session{}, fmt.Errorf("%w (run 'pm login')", err)
	}

	c := client.New(getServerURL(), sess.Token)

	var sink notify.Sink = notify.Func(func(message string, kind notify.Kind) {
		fmt.Fprintln(w, message)
	})
	if isJSON() {
		sink = notify.NewLogger(slog.New(slog.NewJSONHandler(w, nil)))
	}

	return feed.Deps{
		API:      c,
		Authors:  identity.NewResolver(c, sessions),
		Sessions: sessions,
		Notifier: sink,
	}, sess, nil
}

// newCommentFeed builds a feed for parent. With list set, the refreshed
// feed is printed to out after every confirmed change.
func newCommentFeed(parent comment.Parent, out, notices io.Writer, list bool) (*feed.Feed, session.Session, error) {
	deps, sess, err := commentDeps(notices)
	if err != nil {
		return nil, session.Session{}, err
	}

	var f *feed.Feed
	if list {
		deps.OnChange = func() {
			if err := printFeed(out, f.Parent(), f.Comments(), sess.DisplayName()); err != nil {
				fmt.Fprintf(notices, "warning: printing feed: %v\n", err)
			}
		}
	}
	f = feed.New(parent, deps)
	return f, sess, nil
}

// printFeed writes a full listing in the current format.
func printFeed(out io.Writer, parent comment.Parent, comments []comment.Comment, viewer string) error {
	if isJSON() {
		return printJSON(out, comments)
	}
	if err := printHeader(out, parent); err != nil {
		return err
	}
	return printCommentList(out, comments, viewer)
}
