package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/bvmctl/internal/monitor"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/capabilities", s.handleCapabilities)

		// State endpoints
		r.Route("/state", func(r chi.Router) {
			r.Get("/", s.handleGetState)
			r.Get("/wait", s.handleWaitState)
			r.Get("/history", s.handleStateHistory)
		})

		// Command endpoints
		r.Route("/commands", func(r chi.Router) {
			r.Post("/toggle", s.handleToggleCommand)
			r.Post("/info", s.handleInfoCommand)
			r.Post("/knob", s.handleKnobCommand)
		})

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleCapabilities lists the toggle buttons and knobs the monitor accepts.
// Clients use this to build their control surfaces instead of hardcoding
// button names.
func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"buttons":    monitor.ToggleButtons(),
		"knobs":      monitor.Knobs(),
		"directions": []string{"+", "-", "forward", "reverse"},
	})
}
