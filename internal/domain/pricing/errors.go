package pricing

import "errors"

var (
	// ErrUnknownFuelType is returned for fuel types outside petrol/diesel/cng
	ErrUnknownFuelType = errors.New("unknown fuel type")

	// ErrInvalidPrice is returned when a price is <= 0
	ErrInvalidPrice = errors.New("invalid price: must be greater than 0")

	// ErrPriceNotSet is returned when no price row exists for a fuel type yet
	ErrPriceNotSet = errors.New("price not set for fuel type")
)
