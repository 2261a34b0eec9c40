// Package server exposes the orchestrator over HTTP: a command
// endpoint for clients and a health surface for operators.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jllopis/aura/pkg/core"
)

// CommandProcessor handles one free-text command. Implemented by the
// orchestrator.
type CommandProcessor interface {
	Process(ctx context.Context, command string) core.Response
}

// Server routes HTTP requests to the command processor.
type Server struct {
	processor CommandProcessor
	health    *core.HealthRegistry
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New builds the HTTP surface. The health registry may be nil; the
// health endpoint then reports healthy with no components.
func New(processor CommandProcessor, health *core.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = core.NewHealthRegistry()
	}
	s := &Server{
		processor: processor,
		health:    health,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /command", s.handleCommand)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// Handler returns the HTTP handler for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type commandRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, core.NewErrorResponse("invalid request body: expected {\"command\": text}"))
		return
	}

	start := time.Now()
	resp := s.processor.Process(r.Context(), req.Command)
	s.logger.InfoContext(r.Context(), "command processed",
		"intent", resp.Metadata["intent"],
		"type", resp.Type,
		"duration", time.Since(start),
	)

	// Command failures are ordinary outcomes, carried in the envelope.
	s.writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status     core.HealthStatus   `json:"status"`
	Components []core.HealthResult `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results, overall := s.health.CheckAll(r.Context())

	status := http.StatusOK
	if overall == core.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, healthResponse{Status: overall, Components: results})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
