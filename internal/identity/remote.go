// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package identity

import (
	"context"
	"encoding/json"
	"net/http"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// RemoteVerifier resolves tokens by calling an external identity
// provider's userinfo endpoint with the bearer credential passed through.
// A 401/403 from the provider maps to a token rejection; other failures
// map to a backend failure so callers can distinguish the two.
type RemoteVerifier struct {
	userinfoURL string
	client      *http.Client
}

// Compile-time interface check.
var _ Verifier = (*RemoteVerifier)(nil)

// NewRemoteVerifier creates a RemoteVerifier against the given userinfo
// endpoint. A nil client falls back to http.DefaultClient.
func NewRemoteVerifier(userinfoURL string, client *http.Client) *RemoteVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteVerifier{userinfoURL: userinfoURL, client: client}
}

func (v *RemoteVerifier) ResolveUser(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeIdentityBackendFailure,
			"building userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeIdentityBackendFailure,
			"calling identity provider")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, conduiterr.New(conduiterr.CodeIdentityTokenUnauthorized, "token rejected by identity provider")
	case resp.StatusCode != http.StatusOK:
		return nil, conduiterr.Errorf(conduiterr.CodeIdentityBackendFailure,
			"identity provider returned status %d", resp.StatusCode)
	}

	var body struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeIdentityBackendFailure,
			"decoding userinfo response")
	}
	if body.ID == "" {
		return nil, conduiterr.New(conduiterr.CodeIdentityBackendFailure,
			"identity provider returned no user id")
	}

	return &User{ID: body.ID, Name: body.Name, Email: body.Email}, nil
}
