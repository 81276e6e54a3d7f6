package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newEditCommentCmd() *cobra.Command {
	var (
		projectID, taskID int64
		list              bool
	)

	cmd := &cobra.Command{
		Use:   `edit-comment <comment-id> "text"`,
		Short: "Replace the text of a comment",
		Long:  "Replace the text of a comment on a project (--project) or task (--task). Only the author or an admin may edit.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditComment(cmd, args, projectID, taskID, list)
		},
	}

	cmd.Flags().Int64Var(&projectID, "project", 0, "project the comment belongs to")
	cmd.Flags().Int64Var(&taskID, "task", 0, "task the comment belongs to")
	cmd.Flags().BoolVar(&list, "list", false, "print the refreshed feed instead of the changed comment")

	return cmd
}

func runEditComment(cmd *cobra.Command, args []string, projectID, taskID int64, list bool) error {
	id, err := commentID(args[0])
	if err != nil {
		return err
	}
	parent, err := parentFlags(projectID, taskID)
	if err != nil {
		return err
	}

	f, _, err := newCommentFeed(parent, cmd.OutOrStdout(), cmd.ErrOrStderr(), list)
	if err != nil {
		return err
	}

	c, err := f.Edit(cmd.Context(), id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if list {
		return nil
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), c)
	}
	return printCommentSingle(cmd.OutOrStdout(), "updated", c)
}
