package redemption

import "errors"

var (
	// ErrNotFound is returned when the redemption doesn't exist
	ErrNotFound = errors.New("redemption not found")

	// ErrConflict is returned when the redemption is not in the right state
	// for the attempted transition
	ErrConflict = errors.New("redemption state conflict")

	// ErrExpired is returned when applying an approved credit past its window
	ErrExpired = errors.New("redemption expired")

	// ErrNotOwner is returned when applying someone else's credit
	ErrNotOwner = errors.New("redemption belongs to another account")

	// ErrInvalidPoints is returned when points is <= 0
	ErrInvalidPoints = errors.New("invalid points: must be greater than 0")

	// ErrInvalidType is returned for unsupported redemption types
	ErrInvalidType = errors.New("invalid redemption type")

	ErrInternal = errors.New("internal error")
)
