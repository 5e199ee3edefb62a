package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns payment router. The webhook endpoint is mounted
// separately without auth.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Post("/checkout", h.Checkout)
	r.Post("/confirm", h.Confirm)
	r.Get("/orders/{orderID}", h.Status)

	return r
}
