package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/counsel0/counsel/internal/engine"
	"github.com/counsel0/counsel/internal/log"
	"github.com/counsel0/counsel/internal/provider"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      log.Logger
	Controller  *engine.Controller // Required
	Provider    provider.Client    // Optional: nil disables the /readyz ping
	CORSOrigins []string
}

// Server is the JSON/SSE HTTP server.
type Server struct {
	handler http.Handler
}

// NewServer creates the API server with all routes and middleware
// configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Controller == nil {
		return nil, errors.New("engine controller is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	reg := newRegistry()

	ch := &chatHandler{
		controller: cfg.Controller,
		registry:   reg,
		logger:     logger,
	}
	cv := &conversationHandler{registry: reg, logger: logger}
	hh := &healthHandler{provider: cfg.Provider, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", hh.health)
	mux.HandleFunc("GET /readyz", hh.ready)

	mux.HandleFunc("POST /api/v1/conversations", cv.create)
	mux.HandleFunc("GET /api/v1/conversations", cv.list)
	mux.HandleFunc("GET /api/v1/conversations/{id}", cv.get)
	mux.HandleFunc("DELETE /api/v1/conversations/{id}", cv.remove)

	mux.HandleFunc("POST /api/v1/chat/stream", ch.stream)

	// Middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → Routes
	// RequestID sits before Logging so request_id is available in log
	// attributes; CORS sits innermost-but-one so preflight OPTIONS gets
	// proper headers without being logged as errors.
	var handler http.Handler = mux
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	return &Server{handler: handler}, nil
}

// Handler returns the fully-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// healthHandler serves liveness and readiness probes.
type healthHandler struct {
	provider provider.Client
	logger   log.Logger
}

// health is the liveness probe: the process is up.
func (h *healthHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// ready is the readiness probe: the configured provider answers a ping.
func (h *healthHandler) ready(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "provider": "unchecked"}, h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.provider.Ping(ctx); err != nil {
		h.logger.Warn("readiness ping failed", "provider", h.provider.Name(), "error", err)
		writeError(w, http.StatusServiceUnavailable, "provider_unavailable", err.Error(), h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"provider": h.provider.Name(),
	}, h.logger)
}
