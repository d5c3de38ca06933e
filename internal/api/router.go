package api

import (
	"hos-route-service/internal/api/handlers"
	"hos-route-service/internal/hos"
	"hos-route-service/internal/ports"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Planner handlers.TripPlanner
	Store   ports.PlanStore
	HOS     *hos.Engine
	// Checks gate /ready; an empty map means always ready.
	Checks map[string]handlers.Pinger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withRequestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	planHandler := &handlers.PlanHandler{Planner: deps.Planner, Store: deps.Store}
	hosHandler := &handlers.HOSHandler{Engine: deps.HOS}
	healthHandler := &handlers.HealthHandler{Checks: deps.Checks}

	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/plans", planHandler.Create)
		r.Post("/plans/{id}/activate", planHandler.Activate)
		r.Post("/plans/{id}/complete", planHandler.Complete)
		r.Post("/plans/{id}/cancel", planHandler.Cancel)
		r.Post("/hos/compliance", hosHandler.Compliance)
	})

	return r
}
