// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/conduit-dev/conduit/internal/identity"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

type contextKey string

const userContextKey contextKey = "conduit.user"

// ContextWithUser returns a context carrying the resolved user.
func ContextWithUser(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user stored by the auth
// middleware, or false when the request was not authenticated.
func UserFromContext(ctx context.Context) (*identity.User, bool) {
	user, ok := ctx.Value(userContextKey).(*identity.User)
	return user, ok
}

// publicPath reports whether a path is reachable without a bearer token:
// the health check and the generated API documentation.
func publicPath(path string) bool {
	if path == "/health" {
		return true
	}
	return strings.HasPrefix(path, "/openapi") ||
		strings.HasPrefix(path, "/docs") ||
		strings.HasPrefix(path, "/schemas")
}

// authMiddleware requires a bearer token on every non-public request and
// resolves it to a user via the verifier. A request with no Authorization
// header is rejected before anything else happens, so an unauthenticated
// caller can never reach the secret store.
func authMiddleware(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSONError(w, http.StatusUnauthorized, "No authorization header")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			user, err := verifier.ResolveUser(r.Context(), token)
			if err != nil {
				if conduiterr.IsUnauthorized(err) {
					writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				slog.Error("resolving user identity", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "identity backend unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// writeJSONError writes {"error": message} with the given status.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
