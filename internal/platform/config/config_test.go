// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/config"
)

// isolate points ENV_FILE at an empty temp dir and clears variables the tests read.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	t.Setenv("ENV_FILE", envFile)

	for _, key := range []string{
		"SERVER_PORT", "STORAGE_DRIVER", "DATABASE_URL", "REDIS_URL", "JWT_SECRET",
		"TOKEN_TTL", "TOKEN_ISSUER", "BCRYPT_COST", "LOGIN_MAX_ATTEMPTS",
		"LOGIN_ATTEMPT_WINDOW", "COOKIE_SECURE", "ALLOWED_ORIGINS",
		"ENVIRONMENT", "TRUSTED_PROXIES", "PASSWORD_MIN_ENTROPY",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return envFile
}

/*
TestLoad_Defaults verifies defaults for a memory-backed run.
*/
func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "storefront.api", cfg.TokenIssuer)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 10, cfg.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LoginAttemptWindow)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.UsesMemoryStore())
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.TrustedProxies)
}

/*
TestLoad_EmptySecretUsesEnvFile verifies that an exported but empty JWT_SECRET
does not hide the secret persisted in the env file.
*/
func TestLoad_EmptySecretUsesEnvFile(t *testing.T) {
	envFile := isolate(t)
	require.NoError(t, os.WriteFile(envFile, []byte("STORAGE_DRIVER=memory\nJWT_SECRET=persisted-secret\n"), 0o600))
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "persisted-secret", cfg.JWTSecret)
}

/*
TestLoad_TrustedProxies verifies CIDR and bare-IP parsing.
*/
func TestLoad_TrustedProxies(t *testing.T) {
	isolate(t)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")

	cfg, err := config.Load()
	require.NoError(t, err)

	prefixes, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.10/32", prefixes[1].String())
}

/*
TestLoad_EnvFile verifies that values are read from the env file and that
the process environment takes precedence over it.
*/
func TestLoad_EnvFile(t *testing.T) {
	envFile := isolate(t)
	content := "STORAGE_DRIVER=memory\nJWT_SECRET=from-file\nTOKEN_TTL=1h\nALLOWED_ORIGINS=http://a.test,http://b.test\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

/*
TestLoad_PostgresRequiresURL verifies the database URL check.
*/
func TestLoad_PostgresRequiresURL(t *testing.T) {
	isolate(t)

	_, err := config.Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

/*
TestValidate_Invariants verifies each cross-field rule.
*/
func TestValidate_Invariants(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			StorageDriver:      config.StorageMemory,
			TokenTTL:           time.Hour,
			BcryptCost:         10,
			LoginMaxAttempts:   5,
			LoginAttemptWindow: time.Minute,
		}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(*config.Config){
		"unknown driver": func(c *config.Config) { c.StorageDriver = "mongo" },
		"zero ttl":       func(c *config.Config) { c.TokenTTL = 0 },
		"low cost":       func(c *config.Config) { c.BcryptCost = 1 },
		"high cost":      func(c *config.Config) { c.BcryptCost = 99 },
		"zero attempts":  func(c *config.Config) { c.LoginMaxAttempts = 0 },
		"zero window":    func(c *config.Config) { c.LoginAttemptWindow = 0 },
		"bad proxy":      func(c *config.Config) { c.TrustedProxies = []string{"not-a-cidr"} },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
