package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status mirrors the gateway lifecycle of one charge
type Status string

const (
	StatusCreated       Status = "created"
	StatusPaid          Status = "paid"
	StatusFailed        Status = "failed"
	StatusRefunded      Status = "refunded"
	StatusPartialRefund Status = "partial_refund"
)

// Payment is our side of a Razorpay charge against a fuel order
type Payment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`

	GatewayOrderID   string         `db:"gateway_order_id" json:"gateway_order_id"`
	GatewayPaymentID sql.NullString `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`

	Amount   float64 `db:"amount" json:"amount"`
	Currency string  `db:"currency" json:"currency"`
	Status   Status  `db:"status" json:"status"`

	RefundID     sql.NullString `db:"refund_id" json:"refund_id,omitempty"`
	RefundAmount float64        `db:"refund_amount" json:"refund_amount"`

	FailureReason sql.NullString `db:"failure_reason" json:"failure_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
