package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the admin customer router
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Get("/", h.List)
	r.Get("/top", h.Top)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Deactivate)
	r.Post("/{id}/reactivate", h.Reactivate)

	return r
}
