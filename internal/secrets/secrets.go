// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package secrets

// Vault provides secure local secret storage for the CLI and for
// keyring:// references in config. Implementations may use OS keyrings,
// encrypted files, or other backends. This is distinct from the server's
// per-user credential store; the vault holds operator-side material such
// as session tokens.
type Vault interface {
	// Store saves a secret value under the given entry name.
	Store(entry, value string) error

	// Retrieve fetches the secret value for the given entry name.
	// Absent entries report CodeVaultNotFound via conduiterr.HasCode.
	Retrieve(entry string) (string, error)

	// Delete removes the secret for the given entry name.
	// Absent entries report CodeVaultNotFound via conduiterr.HasCode.
	Delete(entry string) error

	// List returns all entry names in the vault.
	List() ([]string, error)
}
