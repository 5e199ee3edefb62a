package transaction

import "errors"

var (
	// ErrNotFound is returned when the transaction doesn't exist
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidLiters is returned when the recorded volume is <= 0
	ErrInvalidLiters = errors.New("liters must be greater than 0")

	// ErrCashbackExceedsTotal is returned when an applied credit is worth
	// more than the purchase
	ErrCashbackExceedsTotal = errors.New("cashback exceeds purchase total")

	// ErrReceiptCollision is returned when the generated receipt number
	// already exists for this month
	ErrReceiptCollision = errors.New("receipt number collision")

	ErrInternal = errors.New("internal error")
)
