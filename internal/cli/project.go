package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/pmfeed/internal/client"
	"github.com/evcraddock/pmfeed/internal/project"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCmd(), newProjectShowCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var req client.CreateProjectRequest

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			if _, err := project.ParseStatus(req.Status); err != nil {
				return err
			}

			p, err := newAPIClient().CreateProject(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("creating project: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			return printProjectSummary(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "project description")
	cmd.Flags().StringVar(&req.Status, "status", "", "NOT_STARTED, IN_PROGRESS, ON_HOLD or COMPLETED (default NOT_STARTED)")

	return cmd
}

func newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project ID: %s", args[0])
			}

			p, err := newAPIClient().GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			return printProjectSummary(cmd.OutOrStdout(), p)
		},
	}
}
