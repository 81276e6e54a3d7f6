package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errAdminOnly is returned before any request when a non-admin tries to delete.
var errAdminOnly = errors.New("deleting comments requires the ADMIN role")

func newDeleteCommentCmd() *cobra.Command {
	var (
		projectID, taskID int64
		list              bool
	)

	cmd := &cobra.Command{
		Use:   "delete-comment <comment-id>",
		Short: "Delete a comment (admin only)",
		Long:  "Delete a comment from a project (--project) or task (--task). Requires the ADMIN role.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteComment(cmd, args, projectID, taskID, list)
		},
	}

	cmd.Flags().Int64Var(&projectID, "project", 0, "project the comment belongs to")
	cmd.Flags().Int64Var(&taskID, "task", 0, "task the comment belongs to")
	cmd.Flags().BoolVar(&list, "list", false, "print the refreshed feed instead of a confirmation")

	return cmd
}

func runDeleteComment(cmd *cobra.Command, args []string, projectID, taskID int64, list bool) error {
	id, err := commentID(args[0])
	if err != nil {
		return err
	}
	parent, err := parentFlags(projectID, taskID)
	if err != nil {
		return err
	}

	f, sess, err := newCommentFeed(parent, cmd.OutOrStdout(), cmd.ErrOrStderr(), list)
	if err != nil {
		return err
	}
	if !sess.IsAdmin() {
		return errAdminOnly
	}

	if err := f.Remove(cmd.Context(), id); err != nil {
		return err
	}
	if list {
		return nil
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"id":      id,
			"deleted": true,
		})
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Comment #%d deleted from %s.\n", id, parent)
	return err
}
