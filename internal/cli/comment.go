package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newCommentCmd() *cobra.Command {
	var task, list bool

	cmd := &cobra.Command{
		Use:   `comment <id> "text"`,
		Short: "Post a comment to a project or task",
		Long:  "Post a comment to a project (or a task with --task). The comment is attributed to the logged-in user.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComment(cmd, args, task, list)
		},
	}

	cmd.Flags().BoolVar(&task, "task", false, "the id is a task id")
	cmd.Flags().BoolVar(&list, "list", false, "print the refreshed feed instead of the changed comment")

	return cmd
}

func runComment(cmd *cobra.Command, args []string, task, list bool) error {
	parent, err := parentArg(args[0], task)
	if err != nil {
		return err
	}

	f, _, err := newCommentFeed(parent, cmd.OutOrStdout(), cmd.ErrOrStderr(), list)
	if err != nil {
		return err
	}

	c, err := f.Post(cmd.Context(), strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if list {
		return nil
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), c)
	}
	return printCommentSingle(cmd.OutOrStdout(), "added", c)
}
