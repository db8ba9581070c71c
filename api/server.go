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
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/wines/*       Catalog management
  /api/references/*  Classification vocabularies
  /api/movements/*   Ledger queries and edits
  /api/sessions/*    Transaction entry staging
  /api/export/*      CSV/XLSX downloads
  /api/shop          Shop settings

SECURITY NOTE:
  No authentication middleware. This serves a single-shop local
  deployment; all endpoints are public on the bound interface.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Wine routes
		r.Route("/wines", func(r chi.Router) {
			r.Get("/", h.ListWines)
			r.Post("/", h.CreateWine)
			r.Get("/low-stock", h.ListLowStock)
			r.Get("/{id}", h.GetWine)
			r.Put("/{id}", h.UpdateWine)
			r.Delete("/{id}", h.DeleteWine)
			r.Get("/{id}/movements", h.GetWineMovements)
			r.Get("/{id}/audit", h.AuditWine)
		})

		// Reference vocabulary routes
		r.Route("/references/{kind}", func(r chi.Router) {
			r.Get("/", h.ListReferences)
			r.Post("/", h.AddReference)
			r.Delete("/{id}", h.DeleteReference)
		})

		// Movement routes
		r.Route("/movements", func(r chi.Router) {
			r.Get("/", h.ListMovements)
			r.Get("/{id}", h.GetMovement)
			r.Put("/{id}", h.EditMovement)
			r.Delete("/{id}", h.DeleteMovement)
		})

		// Staging session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Get("/{id}", h.GetSession)
			r.Delete("/{id}", h.AbandonSession)
			r.Post("/{id}/lines", h.AddLine)
			r.Delete("/{id}/lines/{index}", h.RemoveLine)
			r.Post("/{id}/commit", h.CommitSession)
		})

		// Export routes
		r.Route("/export", func(r chi.Router) {
			r.Get("/wines.csv", h.ExportWinesCSV)
			r.Get("/wines.xlsx", h.ExportWinesXLSX)
			r.Get("/movements.csv", h.ExportMovementsCSV)
			r.Get("/movements.xlsx", h.ExportMovementsXLSX)
		})

		// Shop settings
		r.Get("/shop", h.GetShop)
		r.Put("/shop", h.UpdateShop)
	})

	return r
}
