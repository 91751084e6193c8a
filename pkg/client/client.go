// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

// Package client is the Go client for a Conduit gateway. It manages
// stored credentials over the gateway's key API and gates relay calls on
// a cached view of which services have a credential, so frontends can
// prompt for a key instead of burning a round trip on a guaranteed 404.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// ErrSecretRequired reports that no credential is registered for the
// requested service. Callers check it with errors.Is and prompt the user
// to add a key; it is never produced by a relay round trip.
var ErrSecretRequired = errors.New("no API key registered for service")

// APIError is a non-2xx response from the gateway's own endpoints.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

// Key is one stored credential, value redacted by the server.
type Key struct {
	ID        string `json:"id"`
	Service   string `json:"service"`
	CreatedAt string `json:"created_at"`
}

// Config configures a Manager.
type Config struct {
	// BaseURL is the gateway root, e.g. "http://127.0.0.1:8787".
	BaseURL string

	// Token is the caller's session token, sent as a bearer token.
	Token string

	// HTTPClient overrides the default client; nil gets a 90s timeout to
	// outlast slow provider upstreams.
	HTTPClient *http.Client
}

// Manager talks to a Conduit gateway on behalf of one user. It keeps a
// local cache of the user's stored credentials; the cache is only ever
// rebuilt from a server response, never patched from request parameters.
type Manager struct {
	baseURL string
	token   string
	http    *http.Client

	mu     sync.RWMutex
	keys   map[string]Key // service -> key
	loaded bool
}

// New creates a Manager. The credential cache starts empty and is filled
// on the first List, Call, or mutation.
func New(cfg Config) (*Manager, error) {
	if cfg.BaseURL == "" {
		return nil, conduiterr.New(conduiterr.CodeClientRequestFailure, "gateway base URL is required")
	}
	if cfg.Token == "" {
		return nil, conduiterr.New(conduiterr.CodeClientRequestFailure, "session token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Manager{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
		keys:    map[string]Key{},
	}, nil
}

// List returns the user's stored credentials, refreshing the cache.
func (m *Manager) List(ctx context.Context) ([]Key, error) {
	if err := m.Refresh(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]Key, 0, len(m.keys))
	for _, k := range m.keys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Service < keys[j].Service })
	return keys, nil
}

// Save stores a credential for a service, then refreshes the cache from
// the server.
func (m *Manager) Save(ctx context.Context, service, value string) error {
	body := map[string]string{"api_key": value}
	if err := m.doJSON(ctx, http.MethodPut, "/api/v1/keys/"+service, body, nil); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// Delete removes a stored credential by ID, then refreshes the cache
// from the server.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.doJSON(ctx, http.MethodDelete, "/api/v1/keys/"+id, nil, nil); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// Refresh rebuilds the credential cache from the server.
func (m *Manager) Refresh(ctx context.Context) error {
	var resp struct {
		Keys []Key `json:"keys"`
	}
	if err := m.doJSON(ctx, http.MethodGet, "/api/v1/keys", nil, &resp); err != nil {
		return err
	}

	keys := make(map[string]Key, len(resp.Keys))
	for _, k := range resp.Keys {
		keys[k.Service] = k
	}

	m.mu.Lock()
	m.keys = keys
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// Services returns the services the gateway supports for relaying.
func (m *Manager) Services(ctx context.Context) ([]string, error) {
	var resp struct {
		Services []string `json:"services"`
	}
	if err := m.doJSON(ctx, http.MethodGet, "/api/v1/services", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Services, nil
}

// HasSecretFor reports whether the cached credential list has an entry
// for the service. The answer is only as fresh as the last refresh.
func (m *Manager) HasSecretFor(service string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[service]
	return ok
}

// Call relays a payload to a provider through the gateway. When the
// cached credential list has no entry for the service, Call returns
// ErrSecretRequired without touching the network; an unloaded cache is
// filled from the gateway first.
func (m *Manager) Call(ctx context.Context, service, endpoint string, payload json.RawMessage) (json.RawMessage, error) {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if !loaded {
		if err := m.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	if !m.HasSecretFor(service) {
		return nil, conduiterr.Wrapf(ErrSecretRequired, conduiterr.CodeClientSecretRequired,
			"service %q", service)
	}

	body := map[string]any{"service": service, "endpoint": endpoint}
	if len(payload) > 0 {
		body["payload"] = payload
	}

	// The relay passes upstream bodies through verbatim, so the response
	// is returned raw rather than decoded.
	raw, err := m.doRaw(ctx, http.MethodPost, "/api/v1/relay", body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// doJSON performs one gateway request and decodes the JSON response
// into dest when given.
func (m *Manager) doJSON(ctx context.Context, method, path string, body, dest any) error {
	data, err := m.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}

	if dest != nil && len(data) > 0 {
		if err := json.Unmarshal(data, dest); err != nil {
			return conduiterr.Wrap(err, conduiterr.CodeClientResponseInvalid, "decoding response")
		}
	}
	return nil
}

// doRaw performs one gateway request with the bearer token and returns
// the raw response body. Non-2xx responses become *APIError with the
// server's error message.
func (m *Manager) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, conduiterr.Wrap(err, conduiterr.CodeClientRequestFailure, "encoding request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return nil, conduiterr.Wrap(err, conduiterr.CodeClientRequestFailure, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeClientRequestFailure, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, conduiterr.Wrap(err, conduiterr.CodeClientResponseInvalid, "reading response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	return data, nil
}

// errorMessage extracts the message from a {"error": ...} body, falling
// back to the raw body.
func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
