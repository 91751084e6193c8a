// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conduit-dev/conduit/internal/config"
	"github.com/conduit-dev/conduit/internal/identity"
	"github.com/conduit-dev/conduit/internal/registry"
	"github.com/conduit-dev/conduit/internal/secrets"
	"github.com/conduit-dev/conduit/internal/server"
	"github.com/conduit-dev/conduit/internal/store"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the conduit gateway",
		Long:  "Load configuration, open the credential store, and start the HTTP server.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfgPath := resolveConfigPath(cmd)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	config.WarnInsecurePermissions(cfgPath)

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return err
	}

	storageCfg := cfg.Storage
	if storageCfg.Backend == "sqlite" && storageCfg.Path == "" {
		dataDir, err := config.DefaultDataDir()
		if err != nil {
			return err
		}
		storageCfg.Path = filepath.Join(dataDir, "conduit.db")
	}

	secretStore, err := store.New(&storageCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := secretStore.Close(); err != nil {
			slog.Warn("closing credential store", "error", err)
		}
	}()

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
		Verifier:    verifier,
		Registry:    registry.Default(),
		Secrets:     secretStore,
		RelayClient: &http.Client{Timeout: cfg.Relay.UpstreamTimeout},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting conduit gateway",
		"listen", cfg.Server.Listen,
		"auth_mode", cfg.Auth.Mode,
		"storage", storageCfg.Backend,
	)

	return srv.Start(ctx)
}

// buildVerifier constructs the identity verifier from config. Static
// token values may reference OS keyring entries via keyring:// URIs.
func buildVerifier(cfg *config.Config) (identity.Verifier, error) {
	switch cfg.Auth.Mode {
	case "remote":
		return identity.NewRemoteVerifier(cfg.Auth.UserinfoURL, nil), nil
	case "static":
		if len(cfg.Auth.Tokens) == 0 {
			slog.Warn("no auth tokens configured; every request will be rejected")
		}
		vault := secrets.NewKeyringVault("")
		entries := make([]identity.TokenEntry, 0, len(cfg.Auth.Tokens))
		for _, tok := range cfg.Auth.Tokens {
			value, err := secrets.ResolveValue(vault, tok.Token)
			if err != nil {
				return nil, conduiterr.Wrapf(err, conduiterr.CodeCLISetupFailure,
					"resolving token for user %s", tok.UserID)
			}
			entries = append(entries, identity.TokenEntry{
				Token:  value,
				UserID: tok.UserID,
				Name:   tok.Name,
			})
		}
		return identity.NewStaticVerifier(entries)
	default:
		return nil, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"unsupported auth mode %q", cfg.Auth.Mode)
	}
}
