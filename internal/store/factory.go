// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package store

import (
	"sort"
	"sync"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// Config selects the storage backend.
type Config struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// Factory creates a SecretStore given a database path.
type Factory func(path string) (SecretStore, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory function for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Backends returns the sorted names of all registered storage backends.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *Config) string {
	if cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// New creates the secret store for the configured backend.
func New(cfg *Config) (SecretStore, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, conduiterr.Errorf(conduiterr.CodeStoreBackendUnsupported,
			"unsupported storage backend: %q", backend)
	}

	return factory(cfg.Path)
}
