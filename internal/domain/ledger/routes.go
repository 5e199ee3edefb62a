package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns points router
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.Balance)
		r.Get("/me/history", h.History)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)
		r.Post("/adjust", h.Adjust)
	})

	return r
}
