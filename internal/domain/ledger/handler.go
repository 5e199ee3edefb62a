package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

type adjustRequest struct {
	AccountID   string  `json:"account_id" validate:"required,uuid"`
	Delta       float64 `json:"delta" validate:"required"`
	Description string  `json:"description" validate:"required,max=500"`
}

// Balance returns the authenticated account's points counters
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			response.NotFound(w, "Account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, balance)
}

// History returns the authenticated account's ledger entries
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.svc.History(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"entries": entries})
}

// Adjust applies an admin balance correction
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
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

	err = h.svc.Adjust(r.Context(), accountID, req.Delta, Meta{Description: req.Description})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "delta must be non-zero")
		case errors.Is(err, ErrAccountNotFound):
			response.NotFound(w, "Account not found")
		case errors.Is(err, ErrInsufficientBalance):
			response.Conflict(w, "adjustment would make available points negative")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"adjusted": true})
}
