package auth

import (
	"github.com/fuelstop/fuelstop-api/internal/domain/account"
)

// RegisterRequest for POST /auth/register
type RegisterRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"required,min=7,max=20"`
	Password      string `json:"password" validate:"required,min=8,max=128"`
	VehicleNumber string `json:"vehicle_number" validate:"omitempty,max=20"`
	ReferralCode  string `json:"referral_code" validate:"omitempty,max=20"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest for POST /auth/refresh and /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UpdateProfileRequest for PUT /auth/me
type UpdateProfileRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone         *string `json:"phone" validate:"omitempty,min=7,max=20"`
	VehicleNumber *string `json:"vehicle_number" validate:"omitempty,max=20"`
}

// AuthResponse returned after login/register
type AuthResponse struct {
	Account account.Response `json:"account"`
	Tokens  TokensResponse   `json:"tokens"`
}

// TokensResponse represents tokens in API response
type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds until access token expires
	TokenType    string `json:"token_type"`
}
