package payment

import "errors"

var (
	// ErrNotFound is returned when no payment exists for the reference
	ErrNotFound = errors.New("payment not found")

	// ErrBadSignature is returned when the gateway signature doesn't verify
	ErrBadSignature = errors.New("invalid payment signature")

	// ErrConflict is returned when the payment is not in the right state
	// for the attempted transition
	ErrConflict = errors.New("payment state conflict")

	// ErrNotOwner is returned when the payment belongs to someone else
	ErrNotOwner = errors.New("payment belongs to a different account")

	// ErrNothingToCharge is returned when the order's final amount is zero
	ErrNothingToCharge = errors.New("nothing to charge")

	ErrInternal = errors.New("internal error")
)
