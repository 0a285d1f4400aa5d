// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"forumvault/internal/config"
	"forumvault/internal/logging"
	"forumvault/internal/store"
)

// Server serves the read-only browse/search API and the admin
// reset/rearchive routes. It implements suture.Service for registration
// under the maintenance supervisor (internal/supervisor).
type Server struct {
	cfg   config.ServerConfig
	store *store.Store
	http  *http.Server
}

// NewServer builds a Server bound to cfg.Host:cfg.Port, wiring every
// collaborator the handlers need straight from the Local Store.
func NewServer(cfg config.ServerConfig, s *store.Store) *Server {
	srv := &Server{cfg: cfg, store: s}
	srv.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      srv.routes(),
		ReadTimeout:  orDefaultTimeout(cfg.Timeout),
		WriteTimeout: orDefaultTimeout(cfg.Timeout),
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func orDefaultTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(securityHeaders, instrument, corsMiddleware(s.cfg.CORSOrigins))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/doc.json", serveSwaggerDoc)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))

		r.Get("/archives", s.listArchives)
		r.Get("/archives/search", s.searchArchives)
		r.Get("/archives/{id}", s.getArchive)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdminToken(s.cfg.AdminToken))
			r.Post("/archives/{id}/reset", s.resetArchive)
			r.Post("/archives/{id}/rearchive", s.rearchiveArchive)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{"status": "ok"}, nil)
}

// Serve implements suture.Service. It blocks until ctx is canceled, then
// shuts the HTTP server down gracefully within its own read/write
// timeout budget.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.http.Addr).Msg("api: listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), orDefaultTimeout(s.cfg.Timeout))
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) String() string { return "api-server" }
