package payment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

const paymentColumns = `id, order_id, account_id, gateway_order_id,
	gateway_payment_id, amount, currency, status, refund_id, refund_amount,
	failure_reason, created_at, updated_at`

// Repository persists payments
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Payment, error)
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*Payment, error)

	MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error
	MarkFailed(ctx context.Context, gatewayOrderID, reason string) error
	SetRefund(ctx context.Context, id string, refundID string, amount float64, status Status) error
}

type paymentRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new payment repository
func NewRepository(db *sqlx.DB) Repository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *Payment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO payments (
			id, order_id, account_id, gateway_order_id, amount, currency, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.OrderID, p.AccountID, p.GatewayOrderID, p.Amount, p.Currency, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	return r.getBy(ctx, "order_id", orderID)
}

func (r *paymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Payment, error) {
	return r.getBy(ctx, "gateway_order_id", gatewayOrderID)
}

func (r *paymentRepository) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*Payment, error) {
	return r.getBy(ctx, "gateway_payment_id", gatewayPaymentID)
}

func (r *paymentRepository) getBy(ctx context.Context, column, value string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + column + ` = $1
		ORDER BY created_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, &p, query, value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &p, nil
}

// MarkPaid flips created to paid exactly once
func (r *paymentRepository) MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE payments
		SET status = 'paid', gateway_payment_id = $2, updated_at = NOW()
		WHERE gateway_order_id = $1 AND status = 'created'`

	result, err := r.db.ExecContext(ctx, query, gatewayOrderID, gatewayPaymentID)
	if err != nil {
		return fmt.Errorf("failed to mark payment paid: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return r.conflictCause(ctx, gatewayOrderID)
	}

	return nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, gatewayOrderID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE payments
		SET status = 'failed', failure_reason = $2, updated_at = NOW()
		WHERE gateway_order_id = $1 AND status = 'created'`

	if _, err := r.db.ExecContext(ctx, query, gatewayOrderID, reason); err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}

	return nil
}

// SetRefund records a gateway refund against a paid payment exactly once
func (r *paymentRepository) SetRefund(ctx context.Context, id string, refundID string, amount float64, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE payments
		SET refund_id = $2, refund_amount = refund_amount + $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND status IN ('paid', 'partial_refund')`

	result, err := r.db.ExecContext(ctx, query, id, refundID, amount, status)
	if err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM payments WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("failed to check payment: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}

	return nil
}

func (r *paymentRepository) conflictCause(ctx context.Context, gatewayOrderID string) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE gateway_order_id = $1)`, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("failed to check payment: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	return ErrConflict
}
