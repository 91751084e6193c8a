// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-dev/conduit/internal/identity"
	"github.com/conduit-dev/conduit/internal/registry"
	"github.com/conduit-dev/conduit/internal/server"
	"github.com/conduit-dev/conduit/internal/store"
)

const (
	testToken  = "tok-alice-7f3a"
	testUserID = "user-alice"
)

func newTestVerifier(t *testing.T) identity.Verifier {
	t.Helper()
	v, err := identity.NewStaticVerifier([]identity.TokenEntry{
		{Token: testToken, UserID: testUserID, Name: "Alice"},
	})
	require.NoError(t, err)
	return v
}

// newTestServer builds a server on a memory store with a single static
// token. Mutators adjust the config before construction.
func newTestServer(t *testing.T, mutate ...func(*server.Config)) (*server.Server, *countingStore) {
	t.Helper()

	secrets := &countingStore{inner: store.NewMemoryStore()}
	cfg := server.Config{
		ListenAddr: "127.0.0.1:0",
		Verifier:   newTestVerifier(t),
		Secrets:    secrets,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	srv, err := server.New(cfg)
	require.NoError(t, err)
	return srv, secrets
}

func authedRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// countingStore wraps a SecretStore and counts every query, so tests can
// assert that rejected requests never touch stored credentials.
type countingStore struct {
	inner store.SecretStore
	reads atomic.Int64
}

func (c *countingStore) List(ctx context.Context, userID string) ([]*store.Secret, error) {
	c.reads.Add(1)
	return c.inner.List(ctx, userID)
}

func (c *countingStore) Get(ctx context.Context, userID, service string) (*store.Secret, error) {
	c.reads.Add(1)
	return c.inner.Get(ctx, userID, service)
}

func (c *countingStore) Save(ctx context.Context, userID, service, value string) (*store.Secret, error) {
	return c.inner.Save(ctx, userID, service, value)
}

func (c *countingStore) Delete(ctx context.Context, userID, id string) error {
	return c.inner.Delete(ctx, userID, id)
}

func (c *countingStore) Close() error { return c.inner.Close() }

// relayRegistry returns a registry whose only service points at the given
// base URL with a bearer auth header.
func relayRegistry(baseURL string) *registry.Registry {
	return registry.New(registry.ServiceDescriptor{
		Key:     "openai",
		BaseURL: baseURL + "/v1/",
		Method:  http.MethodPost,
		Auth:    registry.AuthCarrier{Header: "Authorization", Prefix: "Bearer "},
	})
}
