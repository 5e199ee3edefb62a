package transaction

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns transaction router
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Get("/me", h.Mine)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Post("/", h.Record)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
	})

	return r
}
