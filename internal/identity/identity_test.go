// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/conduit-dev/conduit/internal/identity"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticVerifier_ResolvesConfiguredToken(t *testing.T) {
	v, err := identity.NewStaticVerifier([]identity.TokenEntry{
		{Token: "tok-alpha", UserID: "usr-1", Name: "Alice"},
		{Token: "tok-beta", UserID: "usr-2", Name: "Bob"},
	})
	require.NoError(t, err)

	user, err := v.ResolveUser(context.Background(), "tok-alpha")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", user.ID)
	assert.Equal(t, "Alice", user.Name)
}

func TestStaticVerifier_RejectsUnknownToken(t *testing.T) {
	v, err := identity.NewStaticVerifier([]identity.TokenEntry{
		{Token: "tok-alpha", UserID: "usr-1"},
	})
	require.NoError(t, err)

	_, err = v.ResolveUser(context.Background(), "tok-wrong")
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeIdentityTokenUnauthorized))
}

func TestStaticVerifier_SkipsInvalidEntries(t *testing.T) {
	v, err := identity.NewStaticVerifier([]identity.TokenEntry{
		{Token: "", UserID: "usr-1"},
		{Token: "tok-ok", UserID: "usr-2"},
	})
	require.NoError(t, err)

	_, err = v.ResolveUser(context.Background(), "")
	assert.Error(t, err)

	user, err := v.ResolveUser(context.Background(), "tok-ok")
	require.NoError(t, err)
	assert.Equal(t, "usr-2", user.ID)
}

func TestStaticVerifier_AllEntriesInvalidFails(t *testing.T) {
	_, err := identity.NewStaticVerifier([]identity.TokenEntry{
		{Token: "", UserID: ""},
	})
	assert.Error(t, err)
}

func TestRemoteVerifier_ResolvesUser(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"usr-9","name":"Zoe","email":"zoe@example.com"}`))
	}))
	t.Cleanup(upstream.Close)

	v := identity.NewRemoteVerifier(upstream.URL, upstream.Client())
	user, err := v.ResolveUser(context.Background(), "session-token")
	require.NoError(t, err)
	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Equal(t, "usr-9", user.ID)
	assert.Equal(t, "zoe@example.com", user.Email)
}

func TestRemoteVerifier_RejectionMapsToUnauthorized(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(upstream.Close)

	v := identity.NewRemoteVerifier(upstream.URL, upstream.Client())
	_, err := v.ResolveUser(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeIdentityTokenUnauthorized))
}

func TestRemoteVerifier_ProviderFailureIsBackendError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	v := identity.NewRemoteVerifier(upstream.URL, upstream.Client())
	_, err := v.ResolveUser(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeIdentityBackendFailure))
	assert.False(t, conduiterr.IsUnauthorized(err))
}

func TestRemoteVerifier_MissingUserIDIsBackendError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(upstream.Close)

	v := identity.NewRemoteVerifier(upstream.URL, upstream.Client())
	_, err := v.ResolveUser(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeIdentityBackendFailure))
}
