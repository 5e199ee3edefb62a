package account

import "errors"

var (
	// ErrNotFound is returned when the account doesn't exist
	ErrNotFound = errors.New("account not found")

	// ErrEmailTaken is returned when the email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrDeactivated is returned when acting on a deactivated account
	ErrDeactivated = errors.New("account is deactivated")

	// ErrCodeCollision is returned when a generated referral code already exists
	ErrCodeCollision = errors.New("referral code collision")

	ErrInternal = errors.New("internal error")
)
