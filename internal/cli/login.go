package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/pmfeed/internal/client"
)

func newLoginCmd() *cobra.Command {
	var server, username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store a token",
		Long:  "Exchanges a username and password for a bearer token and stores it in the config file. The password is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), server, username, os.Stdin, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")

	return cmd
}

func runLogin(ctx context.Context, serverFlag, username string, in io.Reader, out io.Writer) error {
	serverURL := serverFlag
	if serverURL == "" {
		serverURL = getServerURL()
	}

	reader := bufio.NewReader(in)
	if username == "" {
		if _, err := fmt.Fprint(out, "Username: "); err != nil {
			return err
		}
		line, err := readLine(reader)
		if err != nil {
			return err
		}
		username = line
	}
	if _, err := fmt.Fprint(out, "Password: "); err != nil {
		return err
	}
	password, err := readLine(reader)
	if err != nil {
		return err
	}

	if err := validateCredentials(username, password); err != nil {
		return err
	}

	resp, err := client.New(serverURL, "").Login(ctx, username, password)
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("login failed: %w", err)
	}
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.Token = resp.Token
	cfg.Username = resp.Username
	cfg.Name = resp.Name
	cfg.Role = resp.Role
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	_, err = fmt.Fprintf(out, "\n✓ Logged in as %s (%s).\n", resp.Username, resp.Role)
	return err
}

// readLine reads one line without its trailing newline. EOF after text is not an error.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// validateCredentials checks that both fields are present before calling the server.
func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("no username provided")
	}
	if password == "" {
		return fmt.Errorf("no password provided")
	}
	return nil
}
