// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning when the config file is group-
// or world-readable. The file holds session tokens, so exposure to other
// local users matters; startup continues either way.
func WarnInsecurePermissions(path string) {
	if path == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return
	}

	mode := info.Mode()

	const groupRead fs.FileMode = 0o040
	const otherRead fs.FileMode = 0o004

	if mode.Perm()&(groupRead|otherRead) != 0 {
		slog.Warn("config file is readable by other users",
			"path", path,
			"mode", mode,
			"recommended", "0600",
		)
	}
}
