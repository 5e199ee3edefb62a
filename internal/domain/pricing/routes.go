package pricing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns fuel price router. Reads are public, writes are admin-only.
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{fuelType}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)
		r.Put("/{fuelType}", h.Update)
	})

	return r
}
