package support

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

const ticketColumns = `id, account_id, subject, message, priority, status, created_at, updated_at`

// ListFilters narrows the admin ticket listing
type ListFilters struct {
	Status   *Status
	Priority *Priority
	Limit    int
	Offset   int
}

// Repository persists tickets and their reply threads
type Repository interface {
	CreateTicket(ctx context.Context, t *Ticket) error
	GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Ticket, error)
	List(ctx context.Context, filters ListFilters) ([]Ticket, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	AddReply(ctx context.Context, reply *Reply) error
	ListReplies(ctx context.Context, ticketID uuid.UUID) ([]Reply, error)
}

type supportRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new support repository
func NewRepository(db *sqlx.DB) Repository {
	return &supportRepository{db: db}
}

func (r *supportRepository) CreateTicket(ctx context.Context, t *Ticket) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO support_tickets (id, account_id, subject, message, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID, t.AccountID, t.Subject, t.Message, t.Priority, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

func (r *supportRepository) GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Ticket
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1`

	err := r.db.GetContext(ctx, &t, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return &t, nil
}

func (r *supportRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + ticketColumns + `
		FROM support_tickets
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	tickets := make([]Ticket, 0)
	if err := r.db.SelectContext(ctx, &tickets, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, nil
}

func (r *supportRepository) List(ctx context.Context, filters ListFilters) ([]Ticket, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where := " WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.Priority != nil {
		where += fmt.Sprintf(" AND priority = $%d", argPos)
		args = append(args, *filters.Priority)
		argPos++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM support_tickets"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	query := `SELECT ` + ticketColumns + ` FROM support_tickets` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset)

	tickets := make([]Ticket, 0)
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, total, nil
}

func (r *supportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE support_tickets SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *supportRepository) AddReply(ctx context.Context, reply *Reply) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO support_replies (id, ticket_id, author_id, is_staff, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		reply.ID, reply.TicketID, reply.AuthorID, reply.IsStaff, reply.Message,
	).Scan(&reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add reply: %w", err)
	}

	return nil
}

func (r *supportRepository) ListReplies(ctx context.Context, ticketID uuid.UUID) ([]Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT id, ticket_id, author_id, is_staff, message, created_at
		FROM support_replies
		WHERE ticket_id = $1
		ORDER BY created_at ASC`

	replies := make([]Reply, 0)
	if err := r.db.SelectContext(ctx, &replies, query, ticketID); err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	return replies, nil
}
