// Package config loads server configuration from the environment.
//
// Configuration is an explicitly constructed object handed to collaborators
// at startup; nothing reads process state after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int

	// DBPath is the SQLite database file path.
	DBPath string

	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// TokenDuration is how long issued tokens stay valid.
	TokenDuration time.Duration

	// StaticDir is the frontend build directory served for non-API routes.
	// Empty disables static serving.
	StaticDir string

	// AllowedOrigins is the CORS allowlist.
	AllowedOrigins []string
}

// Load reads configuration from a .env file (if present) and the
// environment. It fails when required settings are missing.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          8080,
		DBPath:        "./data/hisaabhub.db",
		TokenDuration: 7 * 24 * time.Hour,
		AllowedOrigins: []string{
			"http://localhost:5173",
		},
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TOKEN_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_DURATION %q: %w", v, err)
		}
		cfg.TokenDuration = d
	}
	cfg.StaticDir = os.Getenv("STATIC_DIR")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}
