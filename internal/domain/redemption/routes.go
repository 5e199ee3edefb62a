package redemption

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns redemption router
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Post("/", h.Request)
	r.Get("/me", h.Mine)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Get("/", h.List)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
	})

	return r
}
