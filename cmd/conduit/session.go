// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conduit-dev/conduit/internal/secrets"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// sessionTokenEntry is the vault entry holding the CLI's session token.
const sessionTokenEntry = "session-token"

// newVault is swapped in tests to avoid the real OS keyring.
var newVault = func() secrets.Vault {
	return secrets.NewKeyringVault("")
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a session token in the OS keyring",
		Long:  "Save the session token used by key and relay commands. The token is kept in the OS keyring, not on disk.",
		RunE:  runLogin,
	}

	cmd.Flags().String("token", "", "session token (prompted via CONDUIT_TOKEN if unset)")

	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("CONDUIT_TOKEN")
	}
	if token == "" {
		return conduiterr.New(conduiterr.CodeCLIInputInvalid,
			"no token given: pass --token or set CONDUIT_TOKEN")
	}

	if err := newVault().Store(sessionTokenEntry, token); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Session token stored in OS keyring")
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the session token from the OS keyring",
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if err := newVault().Delete(sessionTokenEntry); err != nil {
		if conduiterr.HasCode(err, conduiterr.CodeVaultNotFound) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No session token stored")
			return nil
		}
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Session token removed")
	return nil
}

// sessionToken resolves the token for authenticated commands: the --token
// flag wins, then CONDUIT_TOKEN, then the OS keyring.
func sessionToken(cmd *cobra.Command) (string, error) {
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		return token, nil
	}
	if token := os.Getenv("CONDUIT_TOKEN"); token != "" {
		return token, nil
	}

	token, err := newVault().Retrieve(sessionTokenEntry)
	if err != nil {
		if conduiterr.HasCode(err, conduiterr.CodeVaultNotFound) {
			return "", conduiterr.New(conduiterr.CodeCLIInputInvalid,
				"not logged in: run `conduit login` or pass --token")
		}
		return "", err
	}
	return token, nil
}
