package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/evcraddock/pmfeed/internal/auth"
	"github.com/evcraddock/pmfeed/internal/logging"
	"github.com/evcraddock/pmfeed/internal/user"
	"github.com/evcraddock/pmfeed/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the project-management REST API backed by a local SQLite database. Settings come from PM_* environment variables, optionally loaded from a .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, envFile)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	return cmd
}

func runServe(port int, envFile string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg, err := auth.ConfigFromEnv()
	if err != nil {
		return err
	}
	logging.Setup(cfg.DevMode)

	database, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	if _, err := auth.SeedAdmin(user.NewRepository(database), cfg); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(database, cfg)
	slog.Info("api server ready", "url", fmt.Sprintf("http://localhost:%d", port), "dev_mode", cfg.DevMode)
	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
}
