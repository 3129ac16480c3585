package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-blebox/internal/auth"
	"github.com/nerrad567/gray-logic-blebox/internal/bridge"
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

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.With(s.requirePermission(auth.PermDeviceRead)).Get("/ws", s.handleWebSocket)

		r.Route("/devices", func(r chi.Router) {
			r.With(s.requirePermission(auth.PermDeviceRead)).Get("/", s.handleListDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermDeviceRead)).Get("/", s.handleGetDevice)
				r.With(s.requirePermission(auth.PermDeviceOperate)).Post("/features/{alias}/commands", s.handleCommand)
			})
		})
	})

	return r
}

// handleHealth reports bridge health. Unhealthy bridges answer 503 so the
// endpoint can back a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.gateway.Health()
	status := http.StatusOK
	if health.Status == bridge.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":  health.Status,
		"version": s.version,
		"bridge":  health,
	})
}
