package transaction

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Type separates real fuel purchases from bookkeeping rows
type Type string

const (
	// TypeFuel is a fuel purchase recorded at the pump
	TypeFuel Type = "fuel"

	// TypeReferral is a zero-amount row written when a referral bonus
	// is credited, so the bonus shows up in the customer's history
	TypeReferral Type = "referral"
)

// Transaction is an immutable record of a fuel purchase or bonus.
// Fuel fields are zero for referral rows.
type Transaction struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Type      Type      `db:"type" json:"type"`

	ReceiptNumber string `db:"receipt_number" json:"receipt_number"`

	FuelType      sql.NullString `db:"fuel_type" json:"fuel_type,omitempty"`
	Liters        float64        `db:"liters" json:"liters"`
	PricePerLiter float64        `db:"price_per_liter" json:"price_per_liter"`
	TotalAmount   float64        `db:"total_amount" json:"total_amount"`

	CashbackApplied float64       `db:"cashback_applied" json:"cashback_applied"`
	RedemptionID    uuid.NullUUID `db:"redemption_id" json:"redemption_id,omitempty"`

	// What the customer actually paid after cashback, floored at zero
	FinalAmount float64 `db:"final_amount" json:"final_amount"`

	PaymentMethod sql.NullString `db:"payment_method" json:"payment_method,omitempty"`

	PointsEarned float64 `db:"points_earned" json:"points_earned"`
	IsDouble     bool    `db:"is_double" json:"is_double"`

	RecordedBy  uuid.NullUUID  `db:"recorded_by" json:"recorded_by,omitempty"`
	Description sql.NullString `db:"description" json:"description,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
