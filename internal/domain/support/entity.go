package support

import (
	"time"

	"github.com/google/uuid"
)

// Priority is set by the customer when filing
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValidPriority checks a priority string
func IsValidPriority(p string) bool {
	switch Priority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status tracks the ticket lifecycle. The first staff reply moves an
// open ticket to in_progress automatically.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// IsValidStatus checks a status string
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Ticket is a customer support request
type Ticket struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	Priority  Priority  `db:"priority" json:"priority"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Reply is one message in a ticket's thread
type Reply struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TicketID  uuid.UUID `db:"ticket_id" json:"ticket_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	IsStaff   bool      `db:"is_staff" json:"is_staff"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
