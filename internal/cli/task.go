package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/pmfeed/internal/client"
	"github.com/evcraddock/pmfeed/internal/project"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskCreateCmd())
	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	var req client.CreateTaskRequest

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task in a project (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[0]
			if req.ProjectID <= 0 {
				return fmt.Errorf("--project is required")
			}
			if _, err := project.ParseTaskStatus(req.Status); err != nil {
				return err
			}
			if _, err := project.ParsePriority(req.Priority); err != nil {
				return err
			}

			t, err := newAPIClient().CreateTask(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("creating task: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), t)
			}
			return printTaskSummary(cmd.OutOrStdout(), t)
		},
	}

	cmd.Flags().Int64Var(&req.ProjectID, "project", 0, "project to add the task to")
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&req.Status, "status", "", "TODO, IN_PROGRESS or DONE (default TODO)")
	cmd.Flags().StringVar(&req.Priority, "priority", "", "LOW, MEDIUM or HIGH (default MEDIUM)")

	return cmd
}
