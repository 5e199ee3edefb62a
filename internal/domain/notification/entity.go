package notification

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Category represents notification category
type Category string

const (
	CategoryTransaction Category = "transaction" // Points earned on a fuel purchase
	CategoryRedemption  Category = "redemption"  // Redemption request status changed
	CategoryReferral    Category = "referral"    // Referral bonus credited
	CategoryOrder       Category = "order"       // Prepaid order lifecycle
	CategorySystem      Category = "system"      // Account and support updates
	CategoryPromo       Category = "promo"       // Marketing broadcasts
)

// Notification represents an account notification
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	AccountID uuid.UUID       `db:"account_id" json:"account_id"`
	Category  Category        `db:"category" json:"category"`
	Title     string          `db:"title" json:"title"`
	Body      sql.NullString  `db:"body" json:"body,omitempty"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	ReadAt    sql.NullTime    `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Data links a notification to the entity that produced it
type NotificationData struct {
	OrderID       *string    `json:"order_id,omitempty"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	RedemptionID  *uuid.UUID `json:"redemption_id,omitempty"`
	TicketID      *uuid.UUID `json:"ticket_id,omitempty"`
	Points        *float64   `json:"points,omitempty"`
}

// SetData encodes data to JSON
func (n *Notification) SetData(data *NotificationData) {
	if data != nil {
		n.Data, _ = json.Marshal(data)
	}
}

// GetData decodes data from JSON
func (n *Notification) GetData() *NotificationData {
	if n.Data == nil {
		return &NotificationData{}
	}
	var data NotificationData
	_ = json.Unmarshal(n.Data, &data)
	return &data
}
