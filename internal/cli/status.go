package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/pmfeed/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored token is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	serverURL := getServerURL()
	token := getToken()

	fmt.Fprintf(out, "Server:  %s\n", serverURL)

	if token == "" {
		fmt.Fprintln(out, "Token:   not configured")
		fmt.Fprintln(out, "\nRun 'pm login' to authenticate.")
		return nil
	}

	if cfg, err := loadConfig(); err == nil && cfg.Username != "" {
		fmt.Fprintf(out, "User:    %s (%s)\n", cfg.Username, cfg.Role)
	}
	fmt.Fprintf(out, "Token:   %s\n", truncate(token, 12))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.New(serverURL, token).ListUsers(ctx)
	var apiErr *client.APIError
	switch {
	case err == nil:
		fmt.Fprintln(out, "Status:  ✓ connected and authenticated")
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(out, "Status:  ✗ invalid or expired token")
		fmt.Fprintln(out, "\nRun 'pm login' to re-authenticate.")
	case errors.As(err, &apiErr):
		fmt.Fprintf(out, "Status:  ✗ unexpected response (%d)\n", apiErr.StatusCode)
	default:
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n", err)
	}

	return nil
}
