// Package http exposes the service over HTTP: health, readiness, and
// metrics endpoints plus the client roster and per-client service-area API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/service-area-service/internal/compose"
	"github.com/couchcryptid/service-area-service/internal/domain"
	"github.com/couchcryptid/service-area-service/internal/service"
)

// AreaService answers roster and service-area requests.
type AreaService interface {
	Clients(ctx context.Context) ([]domain.Client, error)
	ServiceArea(ctx context.Context, name string) (*compose.Bundle, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the HTTP API.
type Server struct {
	httpServer *http.Server
	svc        AreaService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, and API routes.
func NewServer(addr string, svc AreaService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/clients", s.handleClients)
	mux.HandleFunc("GET /api/clients/{name}/service-area", s.handleServiceArea)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.Clients(r.Context())
	if err != nil {
		s.logger.Error("listing clients failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "roster unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (s *Server) handleServiceArea(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	area, err := s.svc.ServiceArea(r.Context(), name)
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown client"})
		return
	case err != nil:
		s.logger.Error("service area request failed", "client", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "service area unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, area)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
