package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns order router
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/me", h.Mine)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Post("/verify", h.Verify)
		r.Post("/{id}/complete", h.Complete)
	})

	return r
}
