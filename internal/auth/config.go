// Package auth provides JWT bearer authentication, role checks and admin bootstrapping.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Config holds authentication configuration.
type Config struct {
	JWTSecret []byte
	TokenTTL  time.Duration
	DevMode   bool

	AdminUsername string
	AdminPassword string
	AdminEmail    string
	AdminName     string
}

// ConfigFromEnv creates a Config from environment variables.
// Without PM_JWT_SECRET a random secret is generated, so tokens do not survive a restart.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		JWTSecret:     []byte(os.Getenv("PM_JWT_SECRET")),
		TokenTTL:      24 * time.Hour,
		DevMode:       os.Getenv("PM_DEV_MODE") == "true",
		AdminUsername: envOrDefault("PM_ADMIN_USERNAME", "admin"),
		AdminPassword: envOrDefault("PM_ADMIN_PASSWORD", "ChangeMe123!"),
		AdminEmail:    envOrDefault("PM_ADMIN_EMAIL", "admin@company.com"),
		AdminName:     envOrDefault("PM_ADMIN_NAME", "System Administrator"),
	}

	if v := os.Getenv("PM_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing PM_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}

	if len(cfg.JWTSecret) == 0 {
		secret, err := generateSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generating jwt secret: %w", err)
		}
		slog.Warn("PM_JWT_SECRET not set, using a random secret")
		cfg.JWTSecret = []byte(secret)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
