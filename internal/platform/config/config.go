// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file
(key=value lines) is merged into the process environment first; variables that
are already set always win over the file.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token codec) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is the dotenv file consulted when [Load] is called without arguments.
const DefaultEnvFile = ".env"

// # Configuration Schema

// Config holds all runtime configuration for the user service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Token signing
	JWTSecret     string `env:"JWT_SECRET,required,notEmpty"`
	JWTTTLSeconds int    `env:"JWT_TTL_SECONDS" envDefault:"3600"`

	// BcryptCost is the work factor handed to the password hasher.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Relational Database (PostgreSQL). Empty selects the in-memory account store.
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Message bus (Redis pub/sub). Empty disables the purchase listener.
	RedisURL        string `env:"REDIS_URL"`
	PurchaseChannel string `env:"PURCHASE_CHANNEL" envDefault:"book-purchases"`

	// Cross-Origin Resource Sharing
	CORSOrigins string `env:"CORS_ORIGINS"`
}

// # Configuration Loading

// Load merges the given dotenv files (or [DefaultEnvFile]) into the process
// environment and parses it into a [Config] struct.
//
// Missing dotenv files are skipped; malformed ones are reported.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to read %s: %w", file, err)
		}
	}

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.JWTTTLSeconds <= 0 {
		return nil, fmt.Errorf("config: JWT_TTL_SECONDS must be positive, got %d", cfg.JWTTTLSeconds)
	}

	return cfg, nil
}

// TokenTTL returns the configured access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLSeconds) * time.Second
}

// UsesPostgres reports whether a database URL was configured.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// UsesMessageBus reports whether the purchase listener should be started.
func (c *Config) UsesMessageBus() bool {
	return c.RedisURL != ""
}

// AllowedOrigins splits CORS_ORIGINS into trimmed, non-empty suffixes.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
