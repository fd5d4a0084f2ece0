// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package secret makes sure the process has a token signing secret before it
starts serving.

The secret is read once at boot. When none is configured, a random one is
generated, appended to the env file and exported into the process environment,
so a restart signs and verifies with the same key.
*/
package secret

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/taibuivan/storefront/internal/platform/constants"
)

const (
	// MinLength is the shortest configured secret accepted, in bytes.
	MinLength = 32

	// generatedBytes is the entropy of a generated secret (512 bits).
	generatedBytes = 64
)

// ErrSecretTooShort is returned when a configured secret is below [MinLength].
var ErrSecretTooShort = fmt.Errorf("secret: %s must be at least %d bytes", constants.SecretEnvKey, MinLength)

// Ensure returns the signing secret, provisioning one if current is empty.
//
// It must run once, before any request handler starts.
func Ensure(envFile, current string, logger *slog.Logger) ([]byte, error) {
	if current != "" {
		if len(current) < MinLength {
			return nil, ErrSecretTooShort
		}
		return []byte(current), nil
	}

	generated, err := generate(rand.Reader)
	if err != nil {
		return nil, err
	}

	if err := persist(envFile, generated); err != nil {
		return nil, err
	}

	if err := os.Setenv(constants.SecretEnvKey, generated); err != nil {
		return nil, fmt.Errorf("secret: failed to export %s: %w", constants.SecretEnvKey, err)
	}

	logger.Info("signing_secret_generated",
		slog.String("env_file", envFile),
		slog.Int("bits", generatedBytes*8),
	)

	return []byte(generated), nil
}

func generate(source io.Reader) (string, error) {
	raw := make([]byte, generatedBytes)
	if _, err := io.ReadFull(source, raw); err != nil {
		return "", fmt.Errorf("secret: failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// persist appends a single KEY="value" line to the env file, creating it with
// owner-only permissions when missing.
func persist(envFile, value string) error {
	line, err := godotenv.Marshal(map[string]string{constants.SecretEnvKey: value})
	if err != nil {
		return fmt.Errorf("secret: failed to encode env entry: %w", err)
	}

	prefix, err := separator(envFile)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(envFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("secret: env file %s is not writable: %w", envFile, err)
	}

	if _, err := file.WriteString(prefix + line + "\n"); err != nil {
		_ = file.Close()
		return fmt.Errorf("secret: failed to write %s: %w", envFile, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("secret: failed to close %s: %w", envFile, err)
	}
	return nil
}

// separator returns "\n" when the existing file does not end with a newline.
func separator(envFile string) (string, error) {
	existing, err := os.ReadFile(envFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("secret: failed to read %s: %w", envFile, err)
	}
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		return "\n", nil
	}
	return "", nil
}
