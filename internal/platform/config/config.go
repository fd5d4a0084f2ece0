// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It loads an optional env file with 'joho/godotenv' and then leverages
'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Precedence: Variables already set in the process win over the env file.
  - Immutability: Once loaded, configuration is read-only.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	"github.com/taibuivan/storefront/internal/platform/sec"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// envFileKey names the variable pointing at the env file. It is read before
// the file is loaded, so it can only come from the real process environment.
const envFileKey = "ENV_FILE"

// # Configuration Schema

// Config holds all runtime configuration for the Storefront API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8000"`
	Environment string `env:"ENVIRONMENT"  envDefault:"production"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// StorageDriver selects the user store: "postgres" or "memory".
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Optional; the login throttle is off without it.
	RedisURL string `env:"REDIS_URL"`

	// EnvFile is where a generated signing secret is persisted.
	EnvFile string `env:"ENV_FILE" envDefault:".env"`

	// Session token signing
	JWTSecret   string        `env:"JWT_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"    envDefault:"24h"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"storefront.api"`

	// BcryptCost is the password hashing work factor.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// PasswordMinEntropy rejects weak passwords on registration. 0 disables the check.
	PasswordMinEntropy float64 `env:"PASSWORD_MIN_ENTROPY" envDefault:"0"`

	// Login throttle
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS"   envDefault:"10"`
	LoginAttemptWindow time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"15m"`

	// CookieSecure sets the Secure attribute on the session cookie.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// TrustedProxies lists CIDR ranges of reverse proxies allowed to set
	// X-Forwarded-For and X-Real-IP. Empty means the headers are ignored.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// # Configuration Loading

// Load reads the env file (if present) into the process environment and then
// parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Pick the env file. A missing file is normal in containers.
	envFile := os.Getenv(envFileKey)
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides a variable that is already set. An exported but
	// empty JWT_SECRET would hide the persisted one and force a new secret on
	// every boot.
	if value, ok := os.LookupEnv(constants.SecretEnvKey); ok && strings.TrimSpace(value) == "" {
		if err := os.Unsetenv(constants.SecretEnvKey); err != nil {
			return nil, fmt.Errorf("config: failed to clear empty %s: %w", constants.SecretEnvKey, err)
		}
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to load env file %s: %w", envFile, err)
	}

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field invariants that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver))
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if !sec.ValidHashCost(c.BcryptCost) {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d is out of range", c.BcryptCost))
	}
	if c.PasswordMinEntropy < 0 {
		errs = append(errs, fmt.Errorf("PASSWORD_MIN_ENTROPY must not be negative, got %g", c.PasswordMinEntropy))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}
	if c.LoginMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive, got %d", c.LoginMaxAttempts))
	}
	if c.LoginAttemptWindow <= 0 {
		errs = append(errs, fmt.Errorf("LOGIN_ATTEMPT_WINDOW must be positive, got %s", c.LoginAttemptWindow))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// TrustedProxyPrefixes parses TrustedProxies.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	return middleware.ParseTrustedProxies(c.TrustedProxies)
}

// UsesMemoryStore reports whether users live in process memory instead of PostgreSQL.
func (c *Config) UsesMemoryStore() bool {
	return c.StorageDriver == StorageMemory
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
