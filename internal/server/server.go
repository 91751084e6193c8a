// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/conduit-dev/conduit/internal/identity"
	"github.com/conduit-dev/conduit/internal/registry"
	"github.com/conduit-dev/conduit/internal/relay"
	"github.com/conduit-dev/conduit/internal/store"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// Config holds HTTP server configuration and injected dependencies.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Verifier identity.Verifier
	Registry *registry.Registry
	Secrets  store.SecretStore

	// RelayClient performs outbound provider calls; nil gets a default
	// client with the relay's upstream timeout.
	RelayClient *http.Client
}

// Server wraps a chi router with huma API and HTTP server.
type Server struct {
	router   chi.Router
	api      huma.API
	cfg      Config
	relay    *relay.Handler
	secrets  store.SecretStore
	registry *registry.Registry
	verifier identity.Verifier
}

// New creates a Server with chi router, huma API, health endpoint, CORS,
// the relay route, and the secret manager routes.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, conduiterr.New(conduiterr.CodeServerConfigInvalid, "listen address is required")
	}
	if cfg.Verifier == nil {
		return nil, conduiterr.New(conduiterr.CodeServerConfigInvalid, "identity verifier is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = registry.Default()
	}
	if cfg.Secrets == nil {
		return nil, conduiterr.New(conduiterr.CodeServerConfigInvalid, "secret store is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Upstream providers can be slow; the write timeout must outlast
		// the relay's upstream wait.
		cfg.WriteTimeout = 90 * time.Second
	}

	r := chi.NewRouter()

	// Middleware. Auth runs last so rejected requests still get CORS
	// headers; it must be installed before any route is registered.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(authMiddleware(cfg.Verifier))

	// Huma API with OpenAPI spec
	humaConfig := huma.DefaultConfig("Conduit Gateway", "0.1.0")
	humaConfig.Info.Description = "Credential-gated AI API relay"
	api := humachi.New(r, humaConfig)

	// Health endpoint
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*HealthResponse, error) {
		return &HealthResponse{Body: HealthBody{Status: "ok"}}, nil
	})

	srv := &Server{
		router:   r,
		api:      api,
		cfg:      cfg,
		relay:    relay.New(cfg.Registry, cfg.Secrets, cfg.RelayClient),
		secrets:  cfg.Secrets,
		registry: cfg.Registry,
		verifier: cfg.Verifier,
	}

	r.Post("/api/v1/relay", srv.handleRelay)
	srv.registerRelayOperation()
	srv.registerKeyRoutes()

	return srv, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return conduiterr.Wrap(err, conduiterr.CodeServerShutdownFailure, "shutting down")
	}

	return <-errCh
}

// HealthBody is the JSON body of the health endpoint response.
type HealthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

// corsMiddleware permits all origins; tool frontends are served from
// arbitrary hosts and the relay is protected by bearer auth, not origin.
// Preflight OPTIONS requests are answered with no body.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
}
