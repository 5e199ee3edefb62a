package transaction

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

const transactionColumns = `id, account_id, type, receipt_number, fuel_type,
	liters, price_per_liter, total_amount, cashback_applied, redemption_id,
	final_amount, payment_method, points_earned, is_double, recorded_by,
	description, created_at`

// ListFilters narrows the admin transaction listing
type ListFilters struct {
	AccountID *uuid.UUID
	Type      *Type
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Stats is the admin dashboard aggregate
type Stats struct {
	TotalTransactions int     `db:"total_transactions" json:"total_transactions"`
	TotalLiters       float64 `db:"total_liters" json:"total_liters"`
	TotalRevenue      float64 `db:"total_revenue" json:"total_revenue"`
	TotalPointsIssued float64 `db:"total_points_issued" json:"total_points_issued"`
	TotalCashback     float64 `db:"total_cashback" json:"total_cashback"`
}

// Repository persists transactions
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Transaction, error)
	List(ctx context.Context, filters ListFilters) ([]Transaction, int, error)
	Stats(ctx context.Context) (*Stats, error)
}

type transactionRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new transaction repository
func NewRepository(db *sqlx.DB) Repository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO transactions (
			id, account_id, type, receipt_number, fuel_type, liters,
			price_per_liter, total_amount, cashback_applied, redemption_id,
			final_amount, payment_method, points_earned, is_double,
			recorded_by, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		tx.ID, tx.AccountID, tx.Type, tx.ReceiptNumber, tx.FuelType,
		tx.Liters, tx.PricePerLiter, tx.TotalAmount, tx.CashbackApplied,
		tx.RedemptionID, tx.FinalAmount, tx.PaymentMethod, tx.PointsEarned,
		tx.IsDouble, tx.RecordedBy, tx.Description,
	).Scan(&tx.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "receipt") {
				return ErrReceiptCollision
			}
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var tx Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	err := r.db.GetContext(ctx, &tx, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	transactions := make([]Transaction, 0)
	if err := r.db.SelectContext(ctx, &transactions, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, nil
}

func (r *transactionRepository) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where := " WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filters.AccountID != nil {
		where += fmt.Sprintf(" AND account_id = $%d", argPos)
		args = append(args, *filters.AccountID)
		argPos++
	}
	if filters.Type != nil {
		where += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, *filters.Type)
		argPos++
	}
	if filters.From != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argPos)
		args = append(args, *filters.From)
		argPos++
	}
	if filters.To != nil {
		where += fmt.Sprintf(" AND created_at < $%d", argPos)
		args = append(args, *filters.To)
		argPos++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM transactions"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset)

	transactions := make([]Transaction, 0)
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, total, nil
}

func (r *transactionRepository) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT
			COUNT(*) FILTER (WHERE type = 'fuel') AS total_transactions,
			COALESCE(SUM(liters), 0) AS total_liters,
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COALESCE(SUM(points_earned), 0) AS total_points_issued,
			COALESCE(SUM(cashback_applied), 0) AS total_cashback
		FROM transactions`

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get transaction stats: %w", err)
	}

	return &stats, nil
}
