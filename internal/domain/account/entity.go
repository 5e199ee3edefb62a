package account

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents account role in the system (matches account_role enum)
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Account represents a loyalty program member (matches accounts table)
type Account struct {
	ID            uuid.UUID      `db:"id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Phone         string         `db:"phone"`
	PasswordHash  string         `db:"password_hash"`
	Role          Role           `db:"role"`
	VehicleNumber sql.NullString `db:"vehicle_number"`

	// Points counters, kept in sync by the ledger repository only
	TotalPoints     float64 `db:"total_points"`
	AvailablePoints float64 `db:"available_points"`
	RedeemedPoints  float64 `db:"redeemed_points"`

	// Referral program
	ReferralCode string        `db:"referral_code"`
	ReferredBy   uuid.NullUUID `db:"referred_by"`

	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsAdmin returns true if account has admin role
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsCustomer returns true if account has customer role
func (a *Account) IsCustomer() bool {
	return a.Role == RoleCustomer
}

// IsValidRole checks if role is valid
func IsValidRole(role string) bool {
	return role == string(RoleCustomer) || role == string(RoleAdmin)
}
