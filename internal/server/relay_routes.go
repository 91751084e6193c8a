// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/conduit-dev/conduit/internal/relay"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// handleRelay forwards a request to a third-party provider using the
// caller's stored credential. The upstream status and body are written
// back verbatim, so the relay handler needs raw http.ResponseWriter
// access and cannot use Huma's standard handler signature.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req relay.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.relay.Relay(r.Context(), user.ID, req)
	if err != nil {
		status, message := relayErrorResponse(err)
		if status == http.StatusInternalServerError {
			slog.Error("relay failed", "service", req.Service, "user_id", user.ID, "error", err)
		}
		writeJSONError(w, status, message)
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// relayErrorResponse maps relay errors to the wire status and message.
// Upstream transport failures surface their message so the caller can
// tell a dead provider from a gateway bug.
func relayErrorResponse(err error) (int, string) {
	switch {
	case conduiterr.HasCode(err, conduiterr.CodeRelayServiceInvalid):
		return http.StatusBadRequest, "Invalid service"
	case conduiterr.HasCode(err, conduiterr.CodeRelaySecretNotFound):
		return http.StatusNotFound, "API key not found"
	case conduiterr.HasCode(err, conduiterr.CodeRelayRequestInvalid):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *Server) registerRelayOperation() {
	// The chi route is registered in New; this adds the OpenAPI entry
	// for documentation.
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "relay",
		Method:      http.MethodPost,
		Path:        "/api/v1/relay",
		Summary:     "Relay a request to a provider API",
		Description: "Forward a JSON payload to the named provider using the caller's stored credential. The upstream response status and body are returned verbatim.",
		Tags:        []string{"relay"},
		Security:    []map[string][]string{{"bearer": {}}},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"application/json": {
					Schema: &huma.Schema{
						Type:     "object",
						Required: []string{"service"},
						Properties: map[string]*huma.Schema{
							"service": {
								Type:        "string",
								Description: "Provider key, e.g. openai",
							},
							"endpoint": {
								Type:        "string",
								Description: "Provider endpoint path appended to the base URL",
							},
							"payload": {
								Type:        "object",
								Description: "JSON body forwarded to the provider",
							},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {Description: "Upstream response, passed through verbatim"},
			"400": {Description: "Unknown service"},
			"401": {Description: "Missing or invalid bearer token"},
			"404": {Description: "No stored credential for the service"},
			"500": {Description: "Upstream transport failure"},
		},
	})
}
