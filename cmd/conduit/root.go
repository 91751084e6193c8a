// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/conduit-dev/conduit/internal/config"
)

// NewRootCmd creates the root conduit command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "conduit",
		Short:         "Conduit — credential-gated API relay",
		Long:          "Conduit is a gateway that relays requests to third-party AI provider APIs using per-user stored credentials, so API keys never reach the frontend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newStartCmd(),
		newStatusCmd(),
		newKeyCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newVersionCmd(),
	)

	return root
}

// resolveConfigPath returns the config file to load: the --config flag if
// set, otherwise the default path (bootstrapped with a commented template
// on first run). An empty return means defaults only.
func resolveConfigPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}

	if path := config.BootstrapConfig(); path != "" {
		return path
	}

	path, err := config.DefaultConfigPath()
	if err != nil {
		slog.Debug("no default config path", "error", err)
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
