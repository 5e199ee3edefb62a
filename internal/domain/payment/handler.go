package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/domain/order"
	"github.com/fuelstop/fuelstop-api/internal/middleware"
	"github.com/fuelstop/fuelstop-api/internal/pkg/response"
	"github.com/fuelstop/fuelstop-api/internal/pkg/validator"
)

// Razorpay caps webhook payloads well below this
const maxWebhookBody = 1 << 20

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type checkoutRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type confirmRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// Checkout opens a gateway checkout for a pending order
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	session, err := h.svc.Checkout(r.Context(), req.OrderID, accountID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			response.NotFound(w, "Order not found")
		case errors.Is(err, ErrConflict), errors.Is(err, order.ErrConflict):
			response.Conflict(w, "Order is not awaiting payment")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, session)
}

// Confirm finishes the checkout after the client-side callback
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	p, err := h.svc.Confirm(r.Context(), accountID, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotOwner):
			response.NotFound(w, "Payment not found")
		case errors.Is(err, ErrBadSignature):
			response.ErrorWithDetails(w, http.StatusBadRequest, "INVALID_SIGNATURE", "Payment signature verification failed", nil)
		case errors.Is(err, ErrConflict):
			response.Conflict(w, "Payment already processed")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, p)
}

// Status returns the payment state for an order
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	isAdmin := middleware.GetRole(r.Context()) == "admin"

	p, err := h.svc.Status(r.Context(), chi.URLParam(r, "orderID"), accountID, isAdmin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Payment not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, p)
}

// Webhook receives gateway deliveries. Unauthenticated, verified by signature.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "failed to read body")
		return
	}

	err = h.svc.Webhook(r.Context(), body, r.Header.Get("X-Razorpay-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, ErrBadSignature):
			response.Unauthorized(w, "invalid webhook signature")
		case errors.Is(err, ErrNotFound):
			// Unknown references get a 200 so Razorpay stops retrying
			response.OK(w, map[string]interface{}{"received": true})
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"received": true})
}
