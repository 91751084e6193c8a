// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/zalando/go-keyring"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// DefaultNamespace is the keyring service name Conduit stores under.
const DefaultNamespace = "conduit"

// indexEntry is the keyring entry holding the JSON index of stored entry
// names. go-keyring cannot enumerate entries, so the index is maintained
// alongside them.
const indexEntry = "::index"

// KeyringVault implements Vault on the OS keyring via zalando/go-keyring.
// On macOS it uses Keychain, on Linux secret-service (D-Bus), and on
// Windows the Credential Manager. All entries live under one keyring
// service namespace.
type KeyringVault struct {
	namespace string
}

// NewKeyringVault returns a KeyringVault bound to the given namespace,
// or DefaultNamespace when empty.
func NewKeyringVault(namespace string) *KeyringVault {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &KeyringVault{namespace: namespace}
}

var _ Vault = (*KeyringVault)(nil)

func (v *KeyringVault) Store(entry, value string) error {
	if entry == "" {
		return conduiterr.New(conduiterr.CodeVaultInvalidInput, "vault store: entry must not be empty")
	}

	if err := keyring.Set(v.namespace, entry, value); err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeVaultStoreFailure, "storing vault entry %s", entry)
	}

	return v.addToIndex(entry)
}

func (v *KeyringVault) Retrieve(entry string) (string, error) {
	if entry == "" {
		return "", conduiterr.New(conduiterr.CodeVaultInvalidInput, "vault retrieve: entry must not be empty")
	}

	val, err := keyring.Get(v.namespace, entry)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", conduiterr.Errorf(conduiterr.CodeVaultNotFound, "vault entry %s not found", entry)
		}
		return "", conduiterr.Wrapf(err, conduiterr.CodeVaultStoreFailure, "retrieving vault entry %s", entry)
	}
	return val, nil
}

func (v *KeyringVault) Delete(entry string) error {
	if entry == "" {
		return conduiterr.New(conduiterr.CodeVaultInvalidInput, "vault delete: entry must not be empty")
	}

	if err := keyring.Delete(v.namespace, entry); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return conduiterr.Errorf(conduiterr.CodeVaultNotFound, "vault entry %s not found", entry)
		}
		return conduiterr.Wrapf(err, conduiterr.CodeVaultDeleteFailure, "deleting vault entry %s", entry)
	}

	return v.removeFromIndex(entry)
}

func (v *KeyringVault) List() ([]string, error) {
	return v.loadIndex()
}

func (v *KeyringVault) loadIndex() ([]string, error) {
	raw, err := keyring.Get(v.namespace, indexEntry)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, conduiterr.Wrapf(err, conduiterr.CodeVaultListFailure, "loading vault index")
	}

	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeVaultListFailure, "decoding vault index")
	}

	return entries, nil
}

func (v *KeyringVault) saveIndex(entries []string) error {
	if len(entries) == 0 {
		// Clean up the index entry when empty.
		if delErr := keyring.Delete(v.namespace, indexEntry); delErr != nil {
			slog.Debug("failed to clean up empty vault index", "error", delErr)
		}
		return nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeVaultListFailure, "encoding vault index")
	}

	if err := keyring.Set(v.namespace, indexEntry, string(data)); err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeVaultListFailure, "saving vault index")
	}

	return nil
}

func (v *KeyringVault) addToIndex(entry string) error {
	entries, err := v.loadIndex()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e == entry {
			return nil // already present
		}
	}

	return v.saveIndex(append(entries, entry))
}

func (v *KeyringVault) removeFromIndex(entry string) error {
	entries, err := v.loadIndex()
	if err != nil {
		return err
	}

	filtered := entries[:0]
	for _, e := range entries {
		if e != entry {
			filtered = append(filtered, e)
		}
	}

	return v.saveIndex(filtered)
}
