package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

const orderColumns = `id, account_id, fuel_type, liters, price_per_liter,
	total_amount, credits_applied, final_amount, points_earned, status,
	payment_status, payment_method, gateway_order_id, payment_id, refund_id,
	refund_amount, processed_by, expires_at, completed_at, cancelled_at,
	cancel_reason, created_at, updated_at`

// ListFilters narrows the admin order listing. Status plus PaymentStatus
// covers the fulfillment queue (pending orders that are already paid).
type ListFilters struct {
	Status        *Status
	PaymentStatus *PaymentStatus
	AccountID     *uuid.UUID
	FuelType      *string
	Limit         int
	Offset        int
}

// Stats is the admin dashboard aggregate
type Stats struct {
	TotalOrders     int     `db:"total_orders" json:"total_orders"`
	PendingOrders   int     `db:"pending_orders" json:"pending_orders"`
	CompletedOrders int     `db:"completed_orders" json:"completed_orders"`
	CancelledOrders int     `db:"cancelled_orders" json:"cancelled_orders"`
	TotalRevenue    float64 `db:"total_revenue" json:"total_revenue"`
}

// Repository persists orders
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Order, error)
	List(ctx context.Context, filters ListFilters) ([]Order, int, error)
	Stats(ctx context.Context) (*Stats, error)

	MarkPaid(ctx context.Context, id, gatewayOrderID, paymentID string) error
	Complete(ctx context.Context, id string, adminID uuid.UUID) (*Order, error)
	Cancel(ctx context.Context, id, reason string) (*Order, error)
	MarkExpired(ctx context.Context, id string) error
	SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error
	SetRefund(ctx context.Context, id, refundID string, amount float64, paymentStatus PaymentStatus) error
}

type orderRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new order repository
func NewRepository(db *sqlx.DB) Repository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO orders (
			id, account_id, fuel_type, liters, price_per_liter,
			total_amount, credits_applied, final_amount, points_earned,
			status, payment_status, payment_method, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		o.ID, o.AccountID, o.FuelType, o.Liters, o.PricePerLiter,
		o.TotalAmount, o.CreditsApplied, o.FinalAmount, o.PointsEarned,
		o.Status, o.PaymentStatus, o.PaymentMethod, o.ExpiresAt,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var o Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	err := r.db.GetContext(ctx, &o, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &o, nil
}

func (r *orderRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	orders := make([]Order, 0)
	if err := r.db.SelectContext(ctx, &orders, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) List(ctx context.Context, filters ListFilters) ([]Order, int, error) {
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
	if filters.PaymentStatus != nil {
		where += fmt.Sprintf(" AND payment_status = $%d", argPos)
		args = append(args, *filters.PaymentStatus)
		argPos++
	}
	if filters.AccountID != nil {
		where += fmt.Sprintf(" AND account_id = $%d", argPos)
		args = append(args, *filters.AccountID)
		argPos++
	}
	if filters.FuelType != nil {
		where += fmt.Sprintf(" AND fuel_type = $%d", argPos)
		args = append(args, *filters.FuelType)
		argPos++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset)

	orders := make([]Order, 0)
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepository) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT
			COUNT(*) AS total_orders,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending_orders,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_orders,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled_orders,
			COALESCE(SUM(final_amount) FILTER (WHERE status = 'completed'), 0) AS total_revenue
		FROM orders`

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get order stats: %w", err)
	}

	return &stats, nil
}

// MarkPaid flips payment_status to paid exactly once
func (r *orderRepository) MarkPaid(ctx context.Context, id, gatewayOrderID, paymentID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE orders
		SET payment_status = 'paid',
		    gateway_order_id = $2,
		    payment_id = $3,
		    updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending' AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id, gatewayOrderID, paymentID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return r.transitionConflict(ctx, id)
	}

	return nil
}

// Complete marks a paid order as dispensed. The conditional update makes
// double completion impossible.
func (r *orderRepository) Complete(ctx context.Context, id string, adminID uuid.UUID) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE orders
		SET status = 'completed', processed_by = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing') AND payment_status = 'paid'
		RETURNING ` + orderColumns

	var o Order
	err := r.db.GetContext(ctx, &o, query, id, adminID)
	if err == sql.ErrNoRows {
		return nil, r.completeConflict(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}

	return &o, nil
}

func (r *orderRepository) Cancel(ctx context.Context, id, reason string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE orders
		SET status = 'cancelled', cancel_reason = NULLIF($2, ''), cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing')
		RETURNING ` + orderColumns

	var o Order
	err := r.db.GetContext(ctx, &o, query, id, reason)
	if err == sql.ErrNoRows {
		return nil, r.transitionConflict(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	return &o, nil
}

func (r *orderRepository) MarkExpired(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE orders
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND expires_at <= NOW()`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to expire order: %w", err)
	}

	return nil
}

func (r *orderRepository) SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE orders SET gateway_order_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("failed to set gateway order: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *orderRepository) SetRefund(ctx context.Context, id, refundID string, amount float64, paymentStatus PaymentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE orders SET refund_id = $2, refund_amount = $3, payment_status = $4, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, refundID, amount, paymentStatus)
	if err != nil {
		return fmt.Errorf("failed to set refund: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// transitionConflict figures out why a conditional update touched no rows
func (r *orderRepository) transitionConflict(ctx context.Context, id string) error {
	var status Status
	err := r.db.GetContext(ctx, &status, `SELECT status FROM orders WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check order state: %w", err)
	}

	return ErrConflict
}

func (r *orderRepository) completeConflict(ctx context.Context, id string) error {
	var row struct {
		Status        Status        `db:"status"`
		PaymentStatus PaymentStatus `db:"payment_status"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT status, payment_status FROM orders WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check order state: %w", err)
	}

	if (row.Status == StatusPending || row.Status == StatusProcessing) && row.PaymentStatus != PaymentPaid {
		return ErrNotPaid
	}

	return ErrConflict
}
