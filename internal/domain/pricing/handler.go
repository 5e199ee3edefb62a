package pricing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/middleware"
	"github.com/fuelstop/fuelstop-api/internal/pkg/response"
	"github.com/fuelstop/fuelstop-api/internal/pkg/validator"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type updatePriceRequest struct {
	PricePerLiter float64 `json:"price_per_liter" validate:"required,gt=0"`
}

// List returns all current fuel prices
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	prices, err := h.svc.List(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"prices": prices})
}

// Get returns the current price for one fuel type
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	fuelType := chi.URLParam(r, "fuelType")

	price, err := h.svc.CurrentPrice(r.Context(), fuelType)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownFuelType):
			response.BadRequest(w, "Invalid fuel type. Must be: petrol, diesel, or cng")
		case errors.Is(err, ErrPriceNotSet):
			response.NotFound(w, "Price not set for this fuel type")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, price)
}

// Update sets a new price for one fuel type
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetAccountID(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	fuelType := chi.URLParam(r, "fuelType")

	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	price, err := h.svc.Update(r.Context(), fuelType, req.PricePerLiter, adminID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownFuelType):
			response.BadRequest(w, "Invalid fuel type. Must be: petrol, diesel, or cng")
		case errors.Is(err, ErrInvalidPrice):
			response.BadRequest(w, "price_per_liter must be greater than 0")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, price)
}
