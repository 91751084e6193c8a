// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package secrets

import (
	"strings"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts the entry name from a keyring://entry URI.
func ParseKeyringURI(uri string) (string, error) {
	if !IsKeyringURI(uri) {
		return "", conduiterr.Errorf(conduiterr.CodeVaultInvalidInput, "not a keyring URI: %q", uri)
	}

	entry := strings.TrimPrefix(uri, keyringScheme)
	if entry == "" || strings.Contains(entry, "/") {
		return "", conduiterr.Errorf(conduiterr.CodeVaultInvalidInput,
			"invalid keyring URI %q: expected keyring://entry", uri)
	}

	return entry, nil
}

// ResolveValue resolves a keyring:// URI to its secret value. Values that
// are not keyring URIs pass through unchanged, so config fields can hold
// either literal secrets or vault references.
func ResolveValue(vault Vault, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	entry, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := vault.Retrieve(entry)
	if err != nil {
		return "", conduiterr.Wrapf(err, conduiterr.CodeVaultResolveFailure,
			"resolving keyring URI %q", value)
	}

	return secret, nil
}
