package auth

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fuelstop/fuelstop-api/internal/domain/account"
	"github.com/fuelstop/fuelstop-api/internal/middleware"
	"github.com/fuelstop/fuelstop-api/internal/pkg/response"
	"github.com/fuelstop/fuelstop-api/internal/pkg/validator"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	result, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrEmailAlreadyExists:
			response.Conflict(w, "Email already registered")
		default:
			log.Error().
				Err(err).
				Str("email", req.Email).
				Msg("failed to register account")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, result)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			response.Unauthorized(w, "Invalid email or password")
		case ErrAccountDeactivated:
			response.Forbidden(w, "Your account has been deactivated")
		default:
			log.Error().Err(err).Msg("login failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case ErrRefreshTokenRequired:
			response.BadRequest(w, "refresh_token is required")
		case ErrInvalidRefreshToken:
			response.Unauthorized(w, "Invalid or expired refresh token")
		case ErrAccountDeactivated:
			response.Forbidden(w, "Your account has been deactivated")
		case ErrAccountNotFound:
			response.Unauthorized(w, "Invalid or expired refresh token")
		default:
			log.Error().Err(err).Msg("token refresh failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		log.Warn().Err(err).Msg("logout failed")
	}

	response.OK(w, map[string]interface{}{"logged_out": true})
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	acc, err := h.service.GetCurrentAccount(r.Context(), accountID)
	if err != nil {
		response.NotFound(w, "Account not found")
		return
	}

	response.OK(w, account.ToResponse(acc))
}

// UpdateMe handles PUT /auth/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	acc, err := h.service.UpdateProfile(r.Context(), accountID, &req)
	if err != nil {
		if err == ErrAccountNotFound {
			response.NotFound(w, "Account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, account.ToResponse(acc))
}
