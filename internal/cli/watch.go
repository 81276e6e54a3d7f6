package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/pmfeed/internal/comment"
	"github.com/evcraddock/pmfeed/internal/feed"
)

func newWatchCmd() *cobra.Command {
	var (
		task     bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Follow a comment feed",
		Long:  "Print a project's (or task's with --task) comments, then poll and print new ones until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parentArg(args[0], task)
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}
			deps, sess, err := commentDeps(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchFeed(ctx, deps, parent, interval, cmd.OutOrStdout(), sess.DisplayName())
		},
	}

	cmd.Flags().BoolVar(&task, "task", false, "the id is a task id")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "poll interval")

	return cmd
}

// watchFeed prints every comment once, then polls until ctx is done.
// Load failures during polling are logged and polling continues.
func watchFeed(ctx context.Context, deps feed.Deps, parent comment.Parent, interval time.Duration, out io.Writer, viewer string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// OnLoad runs on the loading goroutine, so seen and writeErr need no lock.
	seen := make(map[string]bool)
	var writeErr error
	deps.OnLoad = func(comments []comment.Comment) {
		if writeErr != nil {
			return
		}
		for _, c := range comments {
			key := seenKey(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := printComment(out, c, viewer); err != nil {
				writeErr = err
				cancel()
				return
			}
		}
	}

	if !isJSON() {
		if err := printHeader(out, parent); err != nil {
			return err
		}
	}

	f := feed.New(parent, deps)
	if err := f.Load(ctx); err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}

	f.Poll(ctx, interval)
	return writeErr
}

// seenKey identifies a comment across loads. Records without a server id
// fall back to their timestamp, author and content.
func seenKey(c comment.Comment) string {
	if c.ID != 0 {
		return "id:" + strconv.FormatInt(c.ID, 10)
	}
	return fmt.Sprintf("t:%d|%s|%s", c.EffectiveTime().UnixNano(), c.AuthorName, c.Content)
}

// printComment writes one comment in the current format.
func printComment(out io.Writer, c comment.Comment, viewer string) error {
	if isJSON() {
		return printJSONLine(out, c)
	}
	return printCommentEntry(out, c, viewer)
}
