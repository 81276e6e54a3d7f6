package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/pmfeed/internal/user"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCmd(), newUserListCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		params user.CreateParams
		role   string
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user (admin only)",
		Long:  "Create a user account. The password is read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := user.ParseRole(role)
			if err != nil {
				return err
			}
			params.Username = args[0]
			params.Role = r

			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			password, err := readLine(bufio.NewReader(os.Stdin))
			if err != nil {
				return err
			}
			if err := validateCredentials(params.Username, password); err != nil {
				return err
			}
			params.Password = password

			u, err := newAPIClient().CreateUser(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("creating user: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), u)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "User #%d %s (%s) created.\n", u.ID, u.Username, u.Role)
			return err
		},
	}

	cmd.Flags().StringVar(&params.Name, "name", "", "full name")
	cmd.Flags().StringVar(&params.Email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", "", "EMPLOYEE or ADMIN (default EMPLOYEE)")
	cmd.Flags().StringVar(&params.Position, "position", "", "job title")
	cmd.Flags().StringVar(&params.Department, "department", "", "department")

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := newAPIClient().ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), users)
			}
			return printUserTable(cmd.OutOrStdout(), users)
		},
	}
}
