package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fuelstop/fuelstop-api/internal/domain/ledger"
)

const queryTimeout = 3 * time.Second

// ListFilters controls admin redemption listing.
type ListFilters struct {
	AccountID *uuid.UUID
	Status    *Status
	Limit     int
	Offset    int
}

// Repository defines redemption data access
type Repository interface {
	Create(ctx context.Context, r *Redemption) error
	GetByID(ctx context.Context, id uuid.UUID) (*Redemption, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Redemption, error)
	List(ctx context.Context, filters ListFilters) ([]Redemption, int, error)
	Approve(ctx context.Context, id, adminID uuid.UUID, expiry time.Duration) (*Redemption, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, reason string) error
	MarkApplied(ctx context.Context, id, accountID, txID uuid.UUID) error
	MarkExpired(ctx context.Context, id uuid.UUID) error
	ApprovedCreditsFor(ctx context.Context, accountID uuid.UUID) ([]Redemption, error)
}

type repository struct {
	db         *sqlx.DB
	ledgerRepo ledger.Repository
}

// NewRepository creates redemption repository. The ledger repository is
// needed because approval debits points in the same transaction.
func NewRepository(db *sqlx.DB, ledgerRepo ledger.Repository) Repository {
	return &repository{db: db, ledgerRepo: ledgerRepo}
}

const redemptionColumns = `
	id, account_id, points, type, cash_value, status,
	decided_by, decided_at, reject_reason, expires_at,
	applied_tx_id, applied_at, created_at, updated_at
`

func (r *repository) Create(ctx context.Context, red *Redemption) error {
	query := `
		INSERT INTO redemptions (id, account_id, points, type, cash_value, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		red.ID, red.AccountID, red.Points, red.Type, red.CashValue, red.Status,
	)
	if err != nil {
		return fmt.Errorf("redemption repository create: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Redemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE id = $1`

	var red Redemption
	err := r.db.GetContext(ctx, &red, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("redemption repository get: %w", err)
	}

	return &red, nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Redemption, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + redemptionColumns + `
		FROM redemptions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	redemptions := make([]Redemption, 0)
	if err := r.db.SelectContext(ctx, &redemptions, query, accountID, limit, offset); err != nil {
		return nil, fmt.Errorf("redemption repository list by account: %w", err)
	}

	return redemptions, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Redemption, int, error) {
	where := `WHERE 1=1`
	args := make([]interface{}, 0, 4)
	idx := 1

	if filters.AccountID != nil {
		where += fmt.Sprintf(" AND account_id = $%d", idx)
		args = append(args, *filters.AccountID)
		idx++
	}
	if filters.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, *filters.Status)
		idx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM redemptions `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("redemption repository count: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + redemptionColumns + ` FROM redemptions ` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	redemptions := make([]Redemption, 0)
	if err := r.db.SelectContext(ctx, &redemptions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("redemption repository list: %w", err)
	}

	return redemptions, total, nil
}

// Approve flips pending -> approved and debits the customer's points in one
// transaction, so a half-approved redemption can never exist. The row lock
// comes from the ledger's FOR UPDATE on the account.
func (r *repository) Approve(ctx context.Context, id, adminID uuid.UUID, expiry time.Duration) (*Redemption, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var red Redemption
	err = tx.GetContext(ctx2, &red, `SELECT `+redemptionColumns+` FROM redemptions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: lock redemption row", ErrInternal)
	}

	if red.Status != StatusPending {
		return nil, ErrConflict
	}

	err = r.ledgerRepo.DebitTx(ctx2, tx, red.AccountID.String(), red.Points, ledger.EntryMeta{
		RelatedEntityType: ptr("redemption"),
		RelatedEntityID:   ptr(red.ID.String()),
		Description:       "points redeemed",
	})
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(expiry)
	err = tx.GetContext(ctx2, &red, `
		UPDATE redemptions
		SET status = 'approved', decided_by = $2, decided_at = NOW(), expires_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+redemptionColumns, id, adminID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: update redemption", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return &red, nil
}

// Reject flips pending -> rejected. First writer wins, a second reject or
// a reject after approval gets ErrConflict.
func (r *repository) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE redemptions
		SET status = 'rejected', decided_by = $2, decided_at = NOW(), reject_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, adminID, reason)
	if err != nil {
		return fmt.Errorf("redemption repository reject: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("redemption repository reject: %w", err)
	}
	if rows == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		return ErrConflict
	}

	return nil
}

// MarkApplied consumes an approved credit against a transaction. The
// conditional UPDATE enforces single use: only one transaction can ever
// flip approved -> applied.
func (r *repository) MarkApplied(ctx context.Context, id, accountID, txID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE redemptions
		SET status = 'applied', applied_tx_id = $3, applied_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND account_id = $2 AND status = 'approved' AND expires_at > NOW()
	`, id, accountID, txID)
	if err != nil {
		return fmt.Errorf("redemption repository mark applied: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("redemption repository mark applied: %w", err)
	}
	if rows == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			return ErrNotFound
		case existing.AccountID != accountID:
			return ErrNotOwner
		case existing.IsExpired(time.Now()):
			return ErrExpired
		default:
			return ErrConflict
		}
	}

	return nil
}

// MarkExpired lazily flips approved -> expired once the window has passed
func (r *repository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE redemptions
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'approved' AND expires_at <= NOW()
	`, id)
	if err != nil {
		return fmt.Errorf("redemption repository mark expired: %w", err)
	}
	return nil
}

// ApprovedCreditsFor returns unexpired approved credits oldest first, the
// order they should be consumed in
func (r *repository) ApprovedCreditsFor(ctx context.Context, accountID uuid.UUID) ([]Redemption, error) {
	query := `SELECT ` + redemptionColumns + `
		FROM redemptions
		WHERE account_id = $1 AND status = 'approved' AND expires_at > NOW()
		ORDER BY created_at ASC`

	redemptions := make([]Redemption, 0)
	if err := r.db.SelectContext(ctx, &redemptions, query, accountID); err != nil {
		return nil, fmt.Errorf("redemption repository approved credits: %w", err)
	}

	return redemptions, nil
}

func ptr(s string) *string {
	return &s
}
