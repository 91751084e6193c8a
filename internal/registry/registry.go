// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package registry

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// AuthCarrier describes how a service descriptor transports the caller's
// secret on the outbound request. Exactly one of Header or QueryParam is
// set; the carrier is a property of the descriptor row, never inferred
// from the service key.
type AuthCarrier struct {
	// Header is the header name carrying the secret (e.g. "Authorization",
	// "X-API-KEY"). Empty when the secret travels in the query string.
	Header string

	// Prefix is prepended to the secret in the header value
	// (e.g. "Bearer ", "Token "). Empty for raw header values.
	Prefix string

	// QueryParam names the URL query parameter carrying the secret.
	// When set, no auth header is written.
	QueryParam string
}

// ServiceDescriptor is one immutable provider integration row.
type ServiceDescriptor struct {
	// Key is the logical service name clients use (e.g. "openai").
	Key string

	// BaseURL is the provider API root the endpoint suffix is joined onto.
	BaseURL string

	// Method is the HTTP method for outbound requests.
	Method string

	// Auth describes how the secret is attached to the request.
	Auth AuthCarrier

	// EndpointFixed means BaseURL is the complete target URL and the
	// caller-supplied endpoint suffix is ignored.
	EndpointFixed bool
}

// URL resolves the outbound target URL for the given endpoint suffix and
// secret. The secret only appears in the URL for query-parameter carriers,
// where it is escaped via url.Values.
func (d *ServiceDescriptor) URL(endpoint, secret string) string {
	target := d.BaseURL
	if !d.EndpointFixed {
		target += strings.TrimPrefix(endpoint, "/")
	}

	if d.Auth.QueryParam != "" {
		q := url.Values{}
		q.Set(d.Auth.QueryParam, secret)
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + q.Encode()
	}

	return target
}

// NewRequest builds the outbound provider request: descriptor method and
// URL, JSON body from payload, and the auth carrier populated with secret.
func (d *ServiceDescriptor) NewRequest(ctx context.Context, endpoint, secret string, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL(endpoint, secret), bytes.NewReader(payload))
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeRelayRequestInvalid,
			"building request for service %q", d.Key)
	}

	req.Header.Set("Content-Type", "application/json")
	if d.Auth.Header != "" {
		req.Header.Set(d.Auth.Header, d.Auth.Prefix+secret)
	}

	return req, nil
}

// Registry is the closed, immutable table of supported services, loaded
// once at process start and injected into the relay handler.
type Registry struct {
	services map[string]*ServiceDescriptor
}

// New builds a Registry from the given descriptors.
func New(descriptors ...ServiceDescriptor) *Registry {
	m := make(map[string]*ServiceDescriptor, len(descriptors))
	for i := range descriptors {
		d := descriptors[i]
		m[d.Key] = &d
	}
	return &Registry{services: m}
}

// Default returns the registry with the built-in provider table.
func Default() *Registry {
	return New(
		ServiceDescriptor{
			Key:     "openai",
			BaseURL: "https://api.openai.com/v1/",
			Method:  http.MethodPost,
			Auth:    AuthCarrier{Header: "Authorization", Prefix: "Bearer "},
		},
		ServiceDescriptor{
			Key:     "stability",
			BaseURL: "https://api.stability.ai/v1/",
			Method:  http.MethodPost,
			Auth:    AuthCarrier{Header: "Authorization", Prefix: "Bearer "},
		},
		ServiceDescriptor{
			Key:           "azure_speech",
			BaseURL:       "https://eastus.api.cognitive.microsoft.com/sts/v1.0/issuetoken",
			Method:        http.MethodPost,
			Auth:          AuthCarrier{Header: "Ocp-Apim-Subscription-Key"},
			EndpointFixed: true,
		},
		ServiceDescriptor{
			Key:     "google_tts",
			BaseURL: "https://texttospeech.googleapis.com/v1/",
			Method:  http.MethodPost,
			Auth:    AuthCarrier{QueryParam: "key"},
		},
		ServiceDescriptor{
			Key:     "writesonic",
			BaseURL: "https://api.writesonic.com/v2/",
			Method:  http.MethodPost,
			Auth:    AuthCarrier{Header: "X-API-KEY"},
		},
		ServiceDescriptor{
			Key:     "replicate",
			BaseURL: "https://api.replicate.com/v1/",
			Method:  http.MethodPost,
			Auth:    AuthCarrier{Header: "Authorization", Prefix: "Token "},
		},
	)
}

// Lookup returns the descriptor for a service key. An unrecognized key is
// always a client error, never a secret store lookup.
func (r *Registry) Lookup(key string) (*ServiceDescriptor, error) {
	d, ok := r.services[key]
	if !ok {
		return nil, conduiterr.New(
			conduiterr.CodeRelayServiceInvalid,
			"unknown service: "+key,
			conduiterr.FieldService(key),
		)
	}
	return d, nil
}

// Keys returns the sorted service keys in the registry.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.services))
	for k := range r.services {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
