package order

import "errors"

var (
	// ErrNotFound is returned when the order doesn't exist
	ErrNotFound = errors.New("order not found")

	// ErrConflict is returned when the order is not in the right state
	// for the attempted transition
	ErrConflict = errors.New("order state conflict")

	// ErrExpired is returned when acting on an order past its pickup window
	ErrExpired = errors.New("order expired")

	// ErrNotPaid is returned when completing an unpaid order
	ErrNotPaid = errors.New("order is not paid")

	// ErrInvalidLiters is returned when the ordered quantity is <= 0
	ErrInvalidLiters = errors.New("invalid liters: must be greater than 0")

	// ErrBelowMinimumCredits is returned when applying fewer credits than the floor
	ErrBelowMinimumCredits = errors.New("credits applied below minimum")

	// ErrInsufficientCredits is returned when the customer lacks the points
	// they are trying to apply
	ErrInsufficientCredits = errors.New("insufficient fuel credits")

	ErrInternal = errors.New("internal error")
)
