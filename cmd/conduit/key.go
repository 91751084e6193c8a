// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conduit-dev/conduit/pkg/client"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage stored provider API keys",
		Long:  "List, set, and delete the API keys the gateway holds for your user.",
	}

	cmd.PersistentFlags().String("address", defaultGatewayAddr, "gateway address")
	cmd.PersistentFlags().String("token", "", "session token (defaults to keyring)")

	cmd.AddCommand(
		newKeyListCmd(),
		newKeySetCmd(),
		newKeyDeleteCmd(),
	)

	return cmd
}

// keyManager builds an authenticated pkg/client Manager for key commands.
func keyManager(cmd *cobra.Command) (*client.Manager, error) {
	token, err := sessionToken(cmd)
	if err != nil {
		return nil, err
	}

	addr, _ := cmd.Flags().GetString("address")
	m, err := client.New(client.Config{
		BaseURL:    "http://" + addr,
		Token:      token,
		HTTPClient: defaultHTTPClient,
	})
	if err != nil {
		return nil, conduiterr.Wrap(err, conduiterr.CodeCLISetupFailure, "building gateway client")
	}
	return m, nil
}

func newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your stored API keys (values are never shown)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := keyManager(cmd)
			if err != nil {
				return err
			}

			keys, err := m.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				_, _ = fmt.Fprintln(out, "No API keys stored")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "SERVICE\tID\tCREATED")
			for _, k := range keys {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", k.Service, k.ID, k.CreatedAt)
			}
			return w.Flush()
		},
	}
}

func newKeySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <service> <api-key>",
		Short: "Store an API key for a service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := keyManager(cmd)
			if err != nil {
				return err
			}

			service := args[0]
			if err := m.Save(cmd.Context(), service, args[1]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "API key for %s stored\n", service)
			return nil
		},
	}
}

func newKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored API key by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := keyManager(cmd)
			if err != nil {
				return err
			}

			if err := m.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "API key %s deleted\n", args[0])
			return nil
		},
	}
}
