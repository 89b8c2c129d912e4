/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for payroll frontends

ROUTE GROUPS:
  /api/calculations/*   Calculate, preview, batch, journal reads
  /api/workers/*        Per-worker history
  /api/scales/*         Scale and coefficient introspection
  /api/scenarios/*      Demo scenarios
  /api/reset            Journal reset (dev only)
  /api/health           Liveness

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures cross-cutting router behaviour.
type RouterOptions struct {
	AllowedOrigins []string
	// Quiet drops the request logger, for tests.
	Quiet bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	if !opts.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerIdempotencyKey},
		ExposedHeaders:   []string{headerReplayed},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/calculations", func(r chi.Router) {
			r.Get("/", h.ListCalculations)
			r.Post("/", h.CreateCalculation)
			r.Post("/preview", h.PreviewCalculation)
			r.Post("/batch", h.RunBatch)
			r.Get("/{id}", h.GetCalculation)
		})

		r.Get("/workers/{ref}/calculations", h.WorkerHistory)

		r.Route("/scales", func(r chi.Router) {
			r.Get("/", h.ListScales)
			r.Get("/{id}/tables", h.GetScaleTables)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{id}/run", h.RunScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
