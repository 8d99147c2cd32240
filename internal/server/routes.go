package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Route("/rpc", func(r chi.Router) {
		r.Get("/", s.listOperations)
		r.Post("/{operation}", s.callOperation)
	})

	// Event streaming (SSE)
	r.Get("/event", s.events)

	r.Get("/health", s.health)

	if s.config.EnableMetrics && s.metrics != nil {
		r.Method("GET", "/metrics", s.metrics.Handler())
	}
}
