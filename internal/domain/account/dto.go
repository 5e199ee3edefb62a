package account

import (
	"time"

	"github.com/google/uuid"
)

// Response is the public account representation
type Response struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Role            string     `json:"role"`
	VehicleNumber   string     `json:"vehicle_number,omitempty"`
	TotalPoints     float64    `json:"total_points"`
	AvailablePoints float64    `json:"available_points"`
	RedeemedPoints  float64    `json:"redeemed_points"`
	ReferralCode    string     `json:"referral_code"`
	ReferredBy      *uuid.UUID `json:"referred_by,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UpdateRequest carries partial profile changes
type UpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone         *string `json:"phone" validate:"omitempty,min=7,max=20"`
	VehicleNumber *string `json:"vehicle_number" validate:"omitempty,max=20"`
}

// ToResponse converts an Account entity to its public representation
func ToResponse(a *Account) Response {
	resp := Response{
		ID:              a.ID,
		Name:            a.Name,
		Email:           a.Email,
		Phone:           a.Phone,
		Role:            string(a.Role),
		TotalPoints:     a.TotalPoints,
		AvailablePoints: a.AvailablePoints,
		RedeemedPoints:  a.RedeemedPoints,
		ReferralCode:    a.ReferralCode,
		IsActive:        a.IsActive,
		CreatedAt:       a.CreatedAt,
	}

	if a.VehicleNumber.Valid {
		resp.VehicleNumber = a.VehicleNumber.String
	}
	if a.ReferredBy.Valid {
		id := a.ReferredBy.UUID
		resp.ReferredBy = &id
	}

	return resp
}

// ToResponseList converts a slice of accounts
func ToResponseList(accounts []Account) []Response {
	out := make([]Response, 0, len(accounts))
	for i := range accounts {
		out = append(out, ToResponse(&accounts[i]))
	}
	return out
}
