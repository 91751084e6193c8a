// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/conduit-dev/conduit/internal/store"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

func (s *Server) registerKeyRoutes() {
	// Secret manager endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "list-keys",
		Method:      http.MethodGet,
		Path:        "/api/v1/keys",
		Summary:     "List stored credentials",
		Description: "Returns the caller's stored credentials with values redacted.",
		Tags:        []string{"keys"},
	}, s.handleListKeys)

	huma.Register(s.api, huma.Operation{
		OperationID: "put-key",
		Method:      http.MethodPut,
		Path:        "/api/v1/keys/{service}",
		Summary:     "Store a credential for a service",
		Description: "Creates or replaces the caller's credential for the service. At most one credential per user and service is kept.",
		Tags:        []string{"keys"},
	}, s.handlePutKey)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-key",
		Method:      http.MethodDelete,
		Path:        "/api/v1/keys/{id}",
		Summary:     "Delete a stored credential",
		Tags:        []string{"keys"},
	}, s.handleDeleteKey)

	// Service catalog endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "list-services",
		Method:      http.MethodGet,
		Path:        "/api/v1/services",
		Summary:     "List relayable services",
		Tags:        []string{"services"},
	}, s.handleListServices)
}

// --- Request/Response types for huma ---

// KeySummary is a stored credential with its value redacted.
type KeySummary struct {
	ID        string `json:"id" doc:"Credential identifier"`
	Service   string `json:"service" doc:"Provider key"`
	CreatedAt string `json:"created_at" doc:"Creation time, RFC 3339"`
}

type listKeysOutput struct {
	Body struct {
		Keys []KeySummary `json:"keys"`
	}
}

type putKeyInput struct {
	Service string `path:"service" doc:"Provider key, e.g. openai"`
	Body    struct {
		APIKey string `json:"api_key" minLength:"1" doc:"Credential value"`
	}
}

type putKeyOutput struct {
	Body struct {
		Key KeySummary `json:"key"`
	}
}

type deleteKeyInput struct {
	ID string `path:"id" doc:"Credential identifier"`
}

type deleteKeyOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

type listServicesOutput struct {
	Body struct {
		Services []string `json:"services"`
	}
}

// --- Handlers ---

func (s *Server) handleListKeys(ctx context.Context, _ *struct{}) (*listKeysOutput, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	secrets, err := s.secrets.List(ctx, user.ID)
	if err != nil {
		slog.Error("listing credentials", "user_id", user.ID, "error", err)
		return nil, huma.Error500InternalServerError("listing credentials failed")
	}

	out := &listKeysOutput{}
	out.Body.Keys = make([]KeySummary, 0, len(secrets))
	for _, sec := range secrets {
		out.Body.Keys = append(out.Body.Keys, keySummary(sec))
	}
	return out, nil
}

func (s *Server) handlePutKey(ctx context.Context, in *putKeyInput) (*putKeyOutput, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	if _, err := s.registry.Lookup(in.Service); err != nil {
		return nil, huma.Error400BadRequest("Invalid service")
	}

	sec, err := s.secrets.Save(ctx, user.ID, in.Service, in.Body.APIKey)
	if err != nil {
		if conduiterr.IsInvalidInput(err) || errors.Is(err, store.ErrInvalidInput) {
			return nil, huma.Error400BadRequest("invalid credential")
		}
		slog.Error("storing credential", "user_id", user.ID, "service", in.Service, "error", err)
		return nil, huma.Error500InternalServerError("storing credential failed")
	}

	out := &putKeyOutput{}
	out.Body.Key = keySummary(sec)
	return out, nil
}

func (s *Server) handleDeleteKey(ctx context.Context, in *deleteKeyInput) (*deleteKeyOutput, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := s.secrets.Delete(ctx, user.ID, in.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("API key not found")
		}
		slog.Error("deleting credential", "user_id", user.ID, "id", in.ID, "error", err)
		return nil, huma.Error500InternalServerError("deleting credential failed")
	}

	out := &deleteKeyOutput{}
	out.Body.Deleted = true
	return out, nil
}

func (s *Server) handleListServices(_ context.Context, _ *struct{}) (*listServicesOutput, error) {
	out := &listServicesOutput{}
	out.Body.Services = s.registry.Keys()
	return out, nil
}

func keySummary(sec *store.Secret) KeySummary {
	red := sec.Redacted()
	return KeySummary{
		ID:        red.ID,
		Service:   red.Service,
		CreatedAt: red.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
