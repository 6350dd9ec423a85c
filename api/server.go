/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: zap request logging (middleware.go)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the dashboard

ROUTE GROUPS:
  /                 Service info
  /health           Liveness and database check
  /api/states/*     Reference states and their context snapshots
  /api/policy/*     Categories and metrics
  /api/data/*       Current values, timelines, comparisons
  /api/admin/*      Writes, behind APIKeyAuth

SEE ALSO:
  - handlers.go, admin.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AdminAPIKey string
	Production  bool
	CORSOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", APIKeyHeader},
		AllowCredentials: true,
	}))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/", h.Info)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/states", func(r chi.Router) {
			r.Get("/", h.ListStates)
			r.Get("/id/{id}", h.GetStateByID)
			r.Get("/code/{code}", h.GetStateByCode)
			r.Get("/code/{code}/context", h.GetStateWithContext)
		})

		r.Route("/policy", func(r chi.Router) {
			r.Get("/categories", h.ListCategories)
			r.Get("/categories/{slug}", h.GetCategory)
			r.Get("/metrics", h.ListMetrics)
			r.Get("/metrics/{slug}", h.GetMetric)
		})

		r.Route("/data", func(r chi.Router) {
			r.Get("/state/{code}", h.StatePolicies)
			r.Get("/state/{code}/metric/{slug}", h.CurrentValue)
			r.Get("/state/{code}/metric/{slug}/timeline", h.Timeline)
			r.Get("/metric/{slug}/comparison", h.MetricComparison)
			r.Get("/category/{slug}", h.CategoryPolicies)
			r.Get("/compare", h.Compare)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(APIKeyAuth(cfg.AdminAPIKey, cfg.Production, h.log))

			r.Post("/policy-data", h.CreatePolicyData)
			r.Post("/policy-data/bulk", h.BulkPolicyData)
			r.Put("/policy-data/{id}", h.UpdatePolicyData)
			r.Delete("/policy-data/{id}", h.DeletePolicyData)

			r.Post("/metrics", h.CreateMetric)
			r.Put("/metrics/{identifier}", h.UpdateMetric)
			r.Delete("/metrics/{identifier}", h.DeleteMetric)

			r.Post("/categories", h.CreateCategory)
			r.Put("/categories/{identifier}", h.UpdateCategory)
			r.Delete("/categories/{identifier}", h.DeleteCategory)

			r.Post("/state-context", h.UpsertStateContext)
			r.Get("/state-context/{stateCode}/history", h.StateContextHistory)
			r.Delete("/state-context/{id}", h.DeleteStateContext)

			r.Get("/report", h.Report)
		})
	})

	return r
}
