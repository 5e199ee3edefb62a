package redemption

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/domain/ledger"
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

type requestRedemptionBody struct {
	Points float64 `json:"points" validate:"required,gt=0"`
	Type   string  `json:"type" validate:"required,redemption_type"`
}

type rejectBody struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// Request files a new redemption request
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req requestRedemptionBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	red, err := h.svc.Request(r.Context(), accountID, req.Points, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPoints):
			response.BadRequest(w, "points must be greater than 0")
		case errors.Is(err, ErrInvalidType):
			response.BadRequest(w, "Invalid redemption type. Must be: cashback, discount, or fuel-credit")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, red)
}

// Mine lists the caller's redemptions
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	redemptions, err := h.svc.Mine(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"redemptions": redemptions})
}

// Get returns one redemption. Customers can only see their own.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid redemption id")
		return
	}

	red, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Redemption not found")
			return
		}
		response.InternalError(w)
		return
	}

	if red.AccountID != accountID && middleware.GetRole(r.Context()) != "admin" {
		response.NotFound(w, "Redemption not found")
		return
	}

	response.OK(w, red)
}

// List returns redemptions for the admin panel
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := ListFilters{}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))

	if v := q.Get("status"); v != "" {
		status := Status(v)
		filters.Status = &status
	}
	if v := q.Get("account_id"); v != "" {
		accountID, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "invalid account_id filter")
			return
		}
		filters.AccountID = &accountID
	}

	redemptions, total, err := h.svc.List(r.Context(), filters)
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

	response.WithMeta(w, redemptions, response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	})
}

// Approve debits points and approves the request
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetAccountID(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid redemption id")
		return
	}

	red, err := h.svc.Approve(r.Context(), id, adminID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Redemption not found")
		case errors.Is(err, ErrConflict):
			response.Conflict(w, "Redemption already decided")
		case errors.Is(err, ledger.ErrInsufficientBalance):
			response.ErrorWithDetails(w, http.StatusConflict, "INSUFFICIENT_BALANCE", "Customer does not have enough points", nil)
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, red)
}

// Reject declines a pending request
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetAccountID(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid redemption id")
		return
	}

	var req rejectBody
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	if err := h.svc.Reject(r.Context(), id, adminID, req.Reason); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Redemption not found")
		case errors.Is(err, ErrConflict):
			response.Conflict(w, "Redemption already decided")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"rejected": true})
}
