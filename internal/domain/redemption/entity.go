package redemption

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status tracks the redemption lifecycle. Transitions only move forward:
// pending -> approved -> applied, pending -> rejected,
// approved -> expired when unused past the expiry window.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusApplied  Status = "applied"
	StatusExpired  Status = "expired"
)

// Type of value the customer gets for their points
type Type string

const (
	TypeCashback   Type = "cashback"
	TypeDiscount   Type = "discount"
	TypeFuelCredit Type = "fuel-credit"
)

// IsValidType checks a redemption type string
func IsValidType(t string) bool {
	switch Type(t) {
	case TypeCashback, TypeDiscount, TypeFuelCredit:
		return true
	}
	return false
}

// Redemption is a customer's request to turn points into value.
// Points convert 1:1 to rupees of cash value for cashback.
type Redemption struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Points    float64   `db:"points" json:"points"`
	Type      Type      `db:"type" json:"type"`
	CashValue float64   `db:"cash_value" json:"cash_value"`
	Status    Status    `db:"status" json:"status"`

	DecidedBy    uuid.NullUUID  `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt    sql.NullTime   `db:"decided_at" json:"decided_at,omitempty"`
	RejectReason sql.NullString `db:"reject_reason" json:"reject_reason,omitempty"`

	// Set on approval, credit must be spent before this
	ExpiresAt sql.NullTime `db:"expires_at" json:"expires_at,omitempty"`

	AppliedTxID uuid.NullUUID `db:"applied_tx_id" json:"applied_tx_id,omitempty"`
	AppliedAt   sql.NullTime  `db:"applied_at" json:"applied_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsExpired reports whether an approved credit sat unused past its window
func (r *Redemption) IsExpired(now time.Time) bool {
	return r.Status == StatusApproved && r.ExpiresAt.Valid && now.After(r.ExpiresAt.Time)
}
