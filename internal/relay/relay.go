// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/conduit-dev/conduit/internal/registry"
	"github.com/conduit-dev/conduit/internal/store"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// defaultUpstreamTimeout bounds how long the relay waits for a provider
// response when the caller supplies no client.
const defaultUpstreamTimeout = 60 * time.Second

// Request is one relay invocation on behalf of an authenticated user.
// Payload is forwarded to the provider byte-for-byte.
type Request struct {
	Service  string          `json:"service"`
	Endpoint string          `json:"endpoint"`
	Payload  json.RawMessage `json:"payload"`
}

// Response mirrors the upstream provider's reply: status and body are
// returned verbatim, never reinterpreted or wrapped.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
}

// Handler is the credential-gated relay core. It is stateless; each call
// performs exactly one secret lookup and at most one outbound request.
type Handler struct {
	registry *registry.Registry
	secrets  store.SecretStore
	client   *http.Client
}

// New creates a Handler with its dependencies injected. A nil client gets
// a default with the upstream timeout applied.
func New(reg *registry.Registry, secrets store.SecretStore, client *http.Client) *Handler {
	if client == nil {
		client = &http.Client{Timeout: defaultUpstreamTimeout}
	}
	return &Handler{registry: reg, secrets: secrets, client: client}
}

// Relay performs one credential-gated provider call for the resolved user.
// Failure order is fixed: unknown service, then missing secret, then
// upstream failure. The secret store is never queried for an unknown
// service, and no outbound call is made unless a secret was found.
func (h *Handler) Relay(ctx context.Context, userID string, req Request) (*Response, error) {
	desc, err := h.registry.Lookup(req.Service)
	if err != nil {
		return nil, err
	}

	secret, err := h.secrets.Get(ctx, userID, req.Service)
	if err != nil {
		// Store lookup errors and absent rows are indistinguishable to the
		// caller: both mean no usable credential for this service.
		return nil, conduiterr.Wrap(err, conduiterr.CodeRelaySecretNotFound,
			"no stored API key",
			conduiterr.FieldUserID(userID),
			conduiterr.FieldService(req.Service),
		)
	}

	outbound, err := desc.NewRequest(ctx, req.Endpoint, secret.Value, req.Payload)
	if err != nil {
		return nil, err
	}

	// The URL is logged with the secret elided; for query-param carriers
	// the real target would otherwise leak the key.
	slog.Info("relaying request",
		"service", req.Service,
		"url", desc.URL(req.Endpoint, "[redacted]"),
		"user_id", userID,
	)

	resp, err := h.client.Do(outbound)
	if err != nil {
		// url.Error prints the full target URL, which for query-param
		// carriers contains the secret. Only the underlying cause may
		// reach logs or callers.
		return nil, conduiterr.Errorf(conduiterr.CodeRelayUpstreamFailure,
			"calling %s at %s: %v", req.Service, desc.URL(req.Endpoint, "[redacted]"), transportCause(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, conduiterr.Errorf(conduiterr.CodeRelayUpstreamFailure,
			"reading %s response: %v", req.Service, transportCause(err))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	// Pass-through: upstream status and body survive unmodified, including
	// provider-side error responses.
	return &Response{
		Status:      resp.StatusCode,
		Body:        body,
		ContentType: contentType,
	}, nil
}

// transportCause strips the request URL from a transport error. The
// returned cause carries the failure reason without the target address.
func transportCause(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
