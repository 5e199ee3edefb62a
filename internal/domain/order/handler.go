package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/domain/pricing"
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

// Create places a new prepaid order
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	o, err := h.svc.Create(r.Context(), CreateParams{
		AccountID:      accountID,
		FuelType:       req.FuelType,
		Liters:         req.Liters,
		CreditsApplied: req.CreditsApplied,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidLiters):
			response.BadRequest(w, "liters must be greater than 0")
		case errors.Is(err, ErrBelowMinimumCredits):
			response.BadRequest(w, "Minimum 10 credits must be applied")
		case errors.Is(err, ErrInsufficientCredits):
			response.ErrorWithDetails(w, http.StatusConflict, "INSUFFICIENT_CREDITS", "Not enough fuel credits", nil)
		case errors.Is(err, pricing.ErrUnknownFuelType):
			response.BadRequest(w, "Invalid fuel type. Must be: petrol, diesel, or cng")
		case errors.Is(err, pricing.ErrPriceNotSet):
			response.BadRequest(w, "Price not set for this fuel type")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, ToResponse(o))
}

// Mine lists the caller's orders
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.svc.Mine(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"orders": orders})
}

// Get returns one order. Customers can only see their own.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	o, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Order not found")
			return
		}
		response.InternalError(w)
		return
	}

	if o.AccountID != accountID && middleware.GetRole(r.Context()) != "admin" {
		response.NotFound(w, "Order not found")
		return
	}

	response.OK(w, ToResponse(o))
}

// List returns orders for the admin panel
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := ListFilters{}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))

	if v := q.Get("status"); v != "" {
		status := Status(v)
		filters.Status = &status
	}
	if v := q.Get("payment_status"); v != "" {
		paymentStatus := PaymentStatus(v)
		filters.PaymentStatus = &paymentStatus
	}
	if v := q.Get("fuel_type"); v != "" {
		filters.FuelType = &v
	}
	if v := q.Get("account_id"); v != "" {
		accountID, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "invalid account_id filter")
			return
		}
		filters.AccountID = &accountID
	}

	orders, total, err := h.svc.List(r.Context(), filters)
	if err != nil {
		response.InternalError(w)
		return
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filters.Offset/limit + 1
	pages := (total + limit - 1) / limit

	response.WithMeta(w, orders, response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	})
}

// Stats returns order aggregates for the admin dashboard
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, stats)
}

// Complete marks a paid order as dispensed
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetAccountID(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	o, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"), adminID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Order not found")
		case errors.Is(err, ErrNotPaid):
			response.Conflict(w, "Order is not paid")
		case errors.Is(err, ErrExpired):
			response.Conflict(w, "Order has expired")
		case errors.Is(err, ErrConflict):
			response.Conflict(w, "Order already finalized")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, o)
}

// Cancel voids a pending order
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	isAdmin := middleware.GetRole(r.Context()) == "admin"

	// The body is optional, cancelling without a reason is fine
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	o, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), accountID, isAdmin, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Order not found")
		case errors.Is(err, ErrExpired):
			response.Conflict(w, "Order has expired")
		case errors.Is(err, ErrConflict):
			response.Conflict(w, "Order already finalized")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, o)
}

// Verify checks a scanned QR code at the pump
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	result, err := h.svc.Verify(r.Context(), req.QRContent)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Order not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, result)
}
