package notification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines notification data access
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, error)
	CountUnreadByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
	MarkAsRead(ctx context.Context, id, accountID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, accountID uuid.UUID) error
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, account_id, category, title, body, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.AccountID,
		n.Category,
		n.Title,
		n.Body,
		n.Data,
		n.IsRead,
		n.CreatedAt,
	)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	query := `SELECT * FROM notifications WHERE id = $1`
	var n Notification
	err := r.db.GetContext(ctx, &n, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var notifications []*Notification
	err := r.db.SelectContext(ctx, &notifications, query, accountID, limit, offset)
	return notifications, err
}

func (r *repository) CountUnreadByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE account_id = $1 AND NOT is_read`
	var count int
	err := r.db.GetContext(ctx, &count, query, accountID)
	return count, err
}

// MarkAsRead is scoped to the owning account so one customer cannot
// mark another's notifications
func (r *repository) MarkAsRead(ctx context.Context, id, accountID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE id = $1 AND account_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) MarkAllAsRead(ctx context.Context, accountID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE account_id = $1 AND NOT is_read`
	_, err := r.db.ExecContext(ctx, query, accountID)
	return err
}

// DeleteOlderThan prunes old notifications, called from the cleanup job
func (r *repository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	query := `DELETE FROM notifications WHERE created_at < $1`
	result, err := r.db.ExecContext(ctx, query, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
