package support

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns support router
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/me", h.Mine)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/replies", h.Reply)

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Get("/", h.List)
		r.Put("/{id}/status", h.UpdateStatus)
	})

	return r
}
