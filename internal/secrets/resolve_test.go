// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-dev/conduit/internal/secrets"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		uri     string
		entry   string
		wantErr bool
	}{
		{"keyring://alice-token", "alice-token", false},
		{"keyring://", "", true},
		{"keyring://a/b", "", true},
		{"literal-value", "", true},
	}

	for _, tt := range tests {
		entry, err := secrets.ParseKeyringURI(tt.uri)
		if tt.wantErr {
			assert.Error(t, err, tt.uri)
			continue
		}
		require.NoError(t, err, tt.uri)
		assert.Equal(t, tt.entry, entry)
	}
}

func TestResolveValue_PassesThroughLiterals(t *testing.T) {
	v := secrets.NewKeyringVault("test-resolve-literal")

	got, err := secrets.ResolveValue(v, "tok-plain")
	require.NoError(t, err)
	assert.Equal(t, "tok-plain", got)
}

func TestResolveValue_ResolvesURI(t *testing.T) {
	v := secrets.NewKeyringVault("test-resolve-uri")
	require.NoError(t, v.Store("gw-token", "tok-from-vault"))

	got, err := secrets.ResolveValue(v, "keyring://gw-token")
	require.NoError(t, err)
	assert.Equal(t, "tok-from-vault", got)
}

func TestResolveValue_MissingEntry(t *testing.T) {
	v := secrets.NewKeyringVault("test-resolve-missing")

	_, err := secrets.ResolveValue(v, "keyring://absent")
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeVaultResolveFailure))
}
