// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

//go:embed conduit.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/conduit/conduit.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", conduiterr.Errorf(conduiterr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "conduit", "conduit.yaml"), nil
}

// DefaultDataDir returns ~/.local/share/conduit, creating it if needed.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", conduiterr.Errorf(conduiterr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".local", "share", "conduit")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", conduiterr.Errorf(conduiterr.CodeConfigLoadReadFailure, "creating data directory %s: %w", dir, err)
	}
	return dir, nil
}

// BootstrapConfig writes the default commented config to the default path
// if it does not already exist. Returns the path written, or empty string
// if the file already existed or an error occurred (logged and skipped).
func BootstrapConfig() string {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("skipping config bootstrap", "error", err)
		return ""
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return "" // already exists
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Debug("skipping config bootstrap: cannot create directory", "path", dir, "error", err)
		return ""
	}

	// 0600: the file holds session tokens.
	if err := os.WriteFile(cfgPath, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("skipping config bootstrap: cannot write config", "path", cfgPath, "error", err)
		return ""
	}

	slog.Info("created default config", "path", cfgPath)
	return cfgPath
}
