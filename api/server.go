/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/franchises/*   Franchise CRUD, goals, ranking
  /api/users/*        Role-gated provisioning
  /api/agents/*       Compensation statements and portfolios
  /api/activities     Append-only event log
  /api/clients/*      Client lifecycle

SECURITY NOTE:
  Identity is the X-Actor-ID header resolved against the user store.
  Real authentication sits in front of this service.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Franchise routes
		r.Route("/franchises", func(r chi.Router) {
			r.Get("/", h.ListFranchises)
			r.Post("/", h.CreateFranchise)
			r.Put("/{id}/goals/{month}", h.PutGoals)
			r.Get("/{id}/goals/{month}", h.GetGoals)
			r.Get("/{id}/ranking", h.GetRanking)
		})

		// User provisioning routes
		r.Route("/users", func(r chi.Router) {
			r.Post("/franchisees", h.CreateFranchisee)
			r.Post("/agents", h.CreateAgent)
		})

		// Agent routes
		r.Route("/agents", func(r chi.Router) {
			r.Get("/{id}/compensation", h.GetCompensation)
			r.Get("/{id}/clients", h.ListAgentClients)
		})

		// Activity routes
		r.Post("/activities", h.LogActivity)

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Post("/", h.CreateClient)
			r.Post("/{id}/activate", h.ActivateClient)
			r.Put("/{id}/tpv", h.UpdateClientTPV)
		})
	})

	return r
}
