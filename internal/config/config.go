// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig mirrors pkg/logger.LoggingConfig.
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	FilePrefix string
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string // "memory" (default) or "postgres"
	PGDSN   string
}

// AuthConfig holds the JWT verification secret.
type AuthConfig struct {
	JWTSecret string
}

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Storage StorageConfig
	Auth    AuthConfig
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            envString("LONGSHOT_HTTP_HOST", "0.0.0.0"),
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      envString("LONGSHOT_LOG_LEVEL", "info"),
			Format:     envString("LONGSHOT_LOG_FORMAT", "json"),
			Output:     envString("LONGSHOT_LOG_OUTPUT", "stdout"),
			FilePrefix: os.Getenv("LONGSHOT_LOG_FILE_PREFIX"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(envString("LONGSHOT_STORE", "memory")),
			PGDSN:   strings.TrimSpace(os.Getenv("LONGSHOT_PG_DSN")),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("LONGSHOT_JWT_SECRET"),
		},
	}

	if raw := os.Getenv("LONGSHOT_HTTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse LONGSHOT_HTTP_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	switch cfg.Storage.Backend {
	case "memory":
	case "postgres":
		if cfg.Storage.PGDSN == "" {
			return nil, fmt.Errorf("LONGSHOT_PG_DSN is required when LONGSHOT_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Storage.Backend)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("LONGSHOT_JWT_SECRET is required")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
