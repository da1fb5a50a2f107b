package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrSecretNotFound is returned when neither the secret file nor the env fallback is set.
var ErrSecretNotFound = errors.New("secret not found")

// secretsDir is the Docker Secrets mount point.
var secretsDir = "/run/secrets"

// ReadSecret reads a secret from the Docker Secrets directory.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(secretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadSecretOrEnv reads secretName from the secrets directory and falls back to
// the envKey variable for local runs without Docker.
func ReadSecretOrEnv(secretName, envKey string) (string, error) {
	secret, fileErr := ReadSecret(secretName)
	if fileErr == nil {
		return secret, nil
	}
	if envKey != "" {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s (env %s): %v", ErrSecretNotFound, secretName, envKey, fileErr)
}
