package order

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status tracks the order lifecycle. pending -> completed when fuel is
// dispensed, pending -> cancelled on customer/admin cancel, pending ->
// expired when unredeemed past the pickup window. processing sits between
// pending and completed while the pump is dispensing.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

// PaymentStatus tracks gateway state independently of the order status
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentPartialRefund PaymentStatus = "partial_refund"
)

// Order is a prepaid fuel order redeemed at the pump via QR code.
// Amounts are rupees; FinalAmount is what actually went to the gateway
// after fuel credits were applied.
type Order struct {
	ID        string    `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`

	FuelType string  `db:"fuel_type" json:"fuel_type"`
	Liters   float64 `db:"liters" json:"liters"`

	// Snapshot of the price board at creation, immune to later changes
	PricePerLiter float64 `db:"price_per_liter" json:"price_per_liter"`

	TotalAmount    float64 `db:"total_amount" json:"total_amount"`
	CreditsApplied float64 `db:"credits_applied" json:"credits_applied"`
	FinalAmount    float64 `db:"final_amount" json:"final_amount"`

	// Awarded when the order completes, computed at creation
	PointsEarned float64 `db:"points_earned" json:"points_earned"`

	Status        Status        `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentMethod string        `db:"payment_method" json:"payment_method,omitempty"`

	GatewayOrderID sql.NullString `db:"gateway_order_id" json:"gateway_order_id,omitempty"`
	PaymentID      sql.NullString `db:"payment_id" json:"payment_id,omitempty"`
	RefundID       sql.NullString `db:"refund_id" json:"refund_id,omitempty"`
	RefundAmount   float64        `db:"refund_amount" json:"refund_amount,omitempty"`

	// Admin who completed or cancelled the order
	ProcessedBy uuid.NullUUID `db:"processed_by" json:"processed_by,omitempty"`

	ExpiresAt    time.Time      `db:"expires_at" json:"expires_at"`
	CompletedAt  sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt  sql.NullTime   `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason sql.NullString `db:"cancel_reason" json:"cancel_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CanComplete reports whether the order can be marked dispensed.
// Only paid pending or processing orders complete.
func (o *Order) CanComplete() bool {
	return (o.Status == StatusPending || o.Status == StatusProcessing) && o.PaymentStatus == PaymentPaid
}

// CanCancel reports whether the order can still be cancelled
func (o *Order) CanCancel() bool {
	return o.Status == StatusPending || o.Status == StatusProcessing
}

// IsExpired reports whether a pending order sat past its pickup window
func (o *Order) IsExpired(now time.Time) bool {
	return o.Status == StatusPending && now.After(o.ExpiresAt)
}
