package ledger

import "errors"

var (
	// ErrInsufficientBalance is returned when the account doesn't have enough available points
	ErrInsufficientBalance = errors.New("insufficient points balance")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrAccountNotFound is returned when the account doesn't exist
	ErrAccountNotFound = errors.New("account not found")

	ErrInternal = errors.New("internal error")
)
