package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/situations", h.Situations)
	r.Post("/calculate", h.Calculate)

	r.Get("/catalog/variables", h.Variables)

	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{id}", h.GetRun)

	return r
}
