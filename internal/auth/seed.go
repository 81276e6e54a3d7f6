package auth

import (
	"fmt"
	"log/slog"

	"github.com/evcraddock/pmfeed/internal/user"
)

// SeedAdmin creates the bootstrap ADMIN account from cfg when no admin exists.
// It reports whether an account was created.
func SeedAdmin(users *user.Repository, cfg Config) (bool, error) {
	n, err := users.CountByRole(user.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("checking for admin: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	u, err := users.Create(user.CreateParams{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Role:     user.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}

	slog.Info("created bootstrap admin", "username", u.Username)
	if cfg.AdminPassword == "ChangeMe123!" {
		slog.Warn("bootstrap admin uses the default password; set PM_ADMIN_PASSWORD")
	}
	return true, nil
}
