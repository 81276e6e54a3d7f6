package cli

import (
	"github.com/spf13/cobra"
)

func newCommentsCmd() *cobra.Command {
	var task bool

	cmd := &cobra.Command{
		Use:   "comments <id>",
		Short: "List comments for a project or task",
		Long:  "List all comments for a project (or a task with --task), oldest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComments(cmd, args, task)
		},
	}

	cmd.Flags().BoolVar(&task, "task", false, "the id is a task id")

	return cmd
}

func runComments(cmd *cobra.Command, args []string, task bool) error {
	parent, err := parentArg(args[0], task)
	if err != nil {
		return err
	}

	f, sess, err := newCommentFeed(parent, cmd.OutOrStdout(), cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	if err := f.Load(cmd.Context()); err != nil {
		return err
	}

	return printFeed(cmd.OutOrStdout(), parent, f.Comments(), sess.DisplayName())
}
