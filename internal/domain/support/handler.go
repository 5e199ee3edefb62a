package support

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

type createTicketRequest struct {
	Subject  string `json:"subject" validate:"required,min=3,max=200"`
	Message  string `json:"message" validate:"required,min=10,max=5000"`
	Priority string `json:"priority" validate:"required,ticket_priority"`
}

type replyRequest struct {
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create files a new support ticket
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	t, err := h.svc.Create(r.Context(), accountID, req.Subject, req.Message, req.Priority)
	if err != nil {
		if errors.Is(err, ErrInvalidPriority) {
			response.BadRequest(w, "Invalid priority. Must be: low, medium, or high")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, t)
}

// Mine lists the caller's tickets
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tickets, err := h.svc.Mine(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"tickets": tickets})
}

// Get returns a ticket with its thread
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid ticket id")
		return
	}

	isAdmin := middleware.GetRole(r.Context()) == "admin"

	thread, err := h.svc.Get(r.Context(), id, accountID, isAdmin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Ticket not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, thread)
}

// Reply appends a message to the ticket thread
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid ticket id")
		return
	}

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	isStaff := middleware.GetRole(r.Context()) == "admin"

	reply, err := h.svc.Reply(r.Context(), id, accountID, isStaff, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Ticket not found")
		case errors.Is(err, ErrClosed):
			response.Conflict(w, "Ticket is closed")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, reply)
}

// List returns tickets for the admin panel
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := ListFilters{}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))

	if v := q.Get("status"); v != "" {
		status := Status(v)
		filters.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := Priority(v)
		filters.Priority = &priority
	}

	tickets, total, err := h.svc.List(r.Context(), filters)
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

	response.WithMeta(w, tickets, response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	})
}

// UpdateStatus changes the ticket lifecycle state
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid ticket id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	t, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Ticket not found")
		case errors.Is(err, ErrInvalidStatus):
			response.BadRequest(w, "Invalid status. Must be: open, in_progress, resolved, or closed")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, t)
}
