package pricing

import (
	"time"

	"github.com/google/uuid"
)

// FuelType enumerates the fuels sold at the pumps
type FuelType string

const (
	FuelPetrol FuelType = "petrol"
	FuelDiesel FuelType = "diesel"
	FuelCNG    FuelType = "cng"
)

// IsValidFuelType checks a fuel type string
func IsValidFuelType(t string) bool {
	switch FuelType(t) {
	case FuelPetrol, FuelDiesel, FuelCNG:
		return true
	}
	return false
}

// FuelPrice is the current per-liter price for one fuel type
type FuelPrice struct {
	FuelType      FuelType      `db:"fuel_type" json:"fuel_type"`
	PricePerLiter float64       `db:"price_per_liter" json:"price_per_liter"`
	UpdatedBy     uuid.NullUUID `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}
