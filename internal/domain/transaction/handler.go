package transaction

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/domain/pricing"
	"github.com/fuelstop/fuelstop-api/internal/domain/redemption"
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

type recordRequest struct {
	AccountID     string  `json:"account_id" validate:"required,uuid"`
	FuelType      string  `json:"fuel_type" validate:"required,fuel_type"`
	Liters        float64 `json:"liters" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,payment_method"`
	RedemptionID  string  `json:"redemption_id" validate:"omitempty,uuid"`
	IsDouble      bool    `json:"is_double"`
}

// Record writes a fuel purchase for a customer
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	recordedBy := middleware.GetAccountID(r.Context())
	if recordedBy == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		response.BadRequest(w, "invalid account_id")
		return
	}

	params := RecordParams{
		AccountID:     accountID,
		FuelType:      req.FuelType,
		Liters:        req.Liters,
		PaymentMethod: req.PaymentMethod,
		IsDouble:      req.IsDouble,
		RecordedBy:    recordedBy,
	}
	if req.RedemptionID != "" {
		redemptionID, err := uuid.Parse(req.RedemptionID)
		if err != nil {
			response.BadRequest(w, "invalid redemption_id")
			return
		}
		params.RedemptionID = &redemptionID
	}

	tx, err := h.svc.Record(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidLiters):
			response.BadRequest(w, "liters must be greater than 0")
		case errors.Is(err, pricing.ErrUnknownFuelType):
			response.BadRequest(w, "Invalid fuel type. Must be: petrol, diesel, or cng")
		case errors.Is(err, pricing.ErrPriceNotSet):
			response.BadRequest(w, "Price not set for this fuel type")
		case errors.Is(err, ErrCashbackExceedsTotal):
			response.ErrorWithDetails(w, http.StatusConflict, "CASHBACK_EXCEEDS_TOTAL", "Credit is worth more than this purchase", nil)
		case errors.Is(err, redemption.ErrNotFound):
			response.NotFound(w, "Redemption not found")
		case errors.Is(err, redemption.ErrNotOwner):
			response.Conflict(w, "Credit belongs to a different customer")
		case errors.Is(err, redemption.ErrExpired):
			response.Conflict(w, "Credit has expired")
		case errors.Is(err, redemption.ErrConflict):
			response.Conflict(w, "Credit already used")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, tx)
}

// Mine lists the caller's transactions
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.svc.Mine(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"transactions": transactions})
}

// Get returns one transaction. Customers can only see their own.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid transaction id")
		return
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Transaction not found")
			return
		}
		response.InternalError(w)
		return
	}

	if tx.AccountID != accountID && middleware.GetRole(r.Context()) != "admin" {
		response.NotFound(w, "Transaction not found")
		return
	}

	response.OK(w, tx)
}

// List returns transactions for the admin panel
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := ListFilters{}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))

	if v := q.Get("account_id"); v != "" {
		accountID, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "invalid account_id filter")
			return
		}
		filters.AccountID = &accountID
	}
	if v := q.Get("type"); v != "" {
		txType := Type(v)
		filters.Type = &txType
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(w, "invalid from date, expected RFC3339")
			return
		}
		filters.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(w, "invalid to date, expected RFC3339")
			return
		}
		filters.To = &to
	}

	transactions, total, err := h.svc.List(r.Context(), filters)
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

	response.WithMeta(w, transactions, response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	})
}

// Stats returns transaction aggregates for the admin dashboard
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, stats)
}
