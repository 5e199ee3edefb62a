package ledger

import "time"

// EntryType defines supported points ledger entry types.
type EntryType string

const (
	EntryTypeEarn       EntryType = "earn"
	EntryTypeRedeem     EntryType = "redeem"
	EntryTypeReferral   EntryType = "referral"
	EntryTypeRefund     EntryType = "refund"
	EntryTypeAdjustment EntryType = "adjustment"
)

// EntryMeta represents optional metadata attached to a ledger entry.
type EntryMeta struct {
	RelatedEntityType *string
	RelatedEntityID   *string
	Description       string
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}

// Balance is a snapshot of an account's points counters.
// Available is what can still be spent; Redeemed is the lifetime spend.
type Balance struct {
	TotalPoints     float64 `db:"total_points" json:"total_points"`
	AvailablePoints float64 `db:"available_points" json:"available_points"`
	RedeemedPoints  float64 `db:"redeemed_points" json:"redeemed_points"`
}

// Entry is a points ledger row.
type Entry struct {
	ID                string    `db:"id" json:"id"`
	AccountID         string    `db:"account_id" json:"account_id"`
	PointsDelta       float64   `db:"points_delta" json:"points_delta"`
	EntryType         string    `db:"entry_type" json:"entry_type"`
	RelatedEntityType *string   `db:"related_entity_type" json:"related_entity_type,omitempty"`
	RelatedEntityID   *string   `db:"related_entity_id" json:"related_entity_id,omitempty"`
	Description       string    `db:"description" json:"description"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
