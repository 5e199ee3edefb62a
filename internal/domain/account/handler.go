package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/pkg/response"
	"github.com/fuelstop/fuelstop-api/internal/pkg/validator"
)

// Handler serves the admin customer panel
type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// List returns customers with optional search and active filter
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := ListFilters{
		Search: q.Get("search"),
	}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))

	if v := q.Get("is_active"); v != "" {
		active := v == "true"
		filters.IsActive = &active
	}

	accounts, total, err := h.svc.ListCustomers(r.Context(), filters)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, ToResponseList(accounts), paginationMeta(total, filters.Limit, filters.Offset))
}

func paginationMeta(total, limit, offset int) response.Meta {
	if limit <= 0 {
		limit = 20
	}
	page := offset/limit + 1
	pages := (total + limit - 1) / limit

	return response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// Top returns the highest lifetime earners
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	accounts, err := h.svc.TopCustomers(r.Context(), limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponseList(accounts))
}

// Get returns a single customer
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid account id")
		return
	}

	acc, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(acc))
}

// Update applies partial profile changes to a customer
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid account id")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	acc, err := h.svc.UpdateProfile(r.Context(), id, UpdateParams{
		Name:          req.Name,
		Phone:         req.Phone,
		VehicleNumber: req.VehicleNumber,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(acc))
}

// Deactivate soft-disables a customer account
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid account id")
		return
	}

	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"deactivated": true})
}

// Reactivate re-enables a customer account
func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid account id")
		return
	}

	if err := h.svc.Reactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"reactivated": true})
}
