package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Credit(ctx context.Context, accountID string, points float64, entryType string, meta EntryMeta) error
	Debit(ctx context.Context, accountID string, points float64, meta EntryMeta) error
	DebitTx(ctx context.Context, tx *sqlx.Tx, accountID string, points float64, meta EntryMeta) error
	Adjust(ctx context.Context, accountID string, delta float64, meta EntryMeta) error
	GetBalance(ctx context.Context, accountID string) (Balance, error)
	ListEntries(ctx context.Context, accountID string, pagination Pagination) ([]Entry, error)
}

// PointsRepository provides points ledger and balance operations.
type PointsRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Credit adds points to an account's total and available counters.
func (r *PointsRepository) Credit(ctx context.Context, accountID string, points float64, entryType string, meta EntryMeta) error {
	if points <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx2, `
		UPDATE accounts
		SET total_points = total_points + $2,
		    available_points = available_points + $2,
		    updated_at = NOW()
		WHERE id = $1
	`, accountID, points)
	if err != nil {
		return fmt.Errorf("%w: update account balance", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrAccountNotFound
	}

	if err := r.insertEntry(ctx2, tx, accountID, points, entryType, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

// Debit atomically spends available points. The conditional UPDATE is the
// balance check: zero rows affected means the balance was too low (or the
// account is gone), never a partial write.
func (r *PointsRepository) Debit(ctx context.Context, accountID string, points float64, meta EntryMeta) error {
	if points <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx2, `
		UPDATE accounts
		SET available_points = available_points - $2,
		    redeemed_points = redeemed_points + $2,
		    updated_at = NOW()
		WHERE id = $1 AND available_points >= $2
	`, accountID, points)
	if err != nil {
		return fmt.Errorf("%w: update account balance", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		// Distinguish a missing account from a thin balance
		var exists bool
		if err := tx.QueryRowContext(ctx2, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
			return fmt.Errorf("%w: check account", ErrInternal)
		}
		if !exists {
			return ErrAccountNotFound
		}
		return ErrInsufficientBalance
	}

	if err := r.insertEntry(ctx2, tx, accountID, -points, string(EntryTypeRedeem), meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

// DebitTx spends points within an external transaction using FOR UPDATE row lock.
// The caller owns the transaction and must commit or roll back.
func (r *PointsRepository) DebitTx(ctx context.Context, tx *sqlx.Tx, accountID string, points float64, meta EntryMeta) error {
	if points <= 0 {
		return ErrInvalidAmount
	}

	var available float64
	err := tx.QueryRowContext(ctx, `SELECT available_points FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("%w: lock account row", ErrInternal)
	}

	if available < points {
		return ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE accounts
		SET available_points = available_points - $2,
		    redeemed_points = redeemed_points + $2,
		    updated_at = NOW()
		WHERE id = $1
	`, accountID, points)
	if err != nil {
		return fmt.Errorf("%w: update account balance", ErrInternal)
	}

	if err := r.insertEntry(ctx, tx, accountID, -points, string(EntryTypeRedeem), meta); err != nil {
		return err
	}

	return nil
}

// Adjust applies a signed admin correction. A negative delta is clamped by the
// same conditional UPDATE as Debit so available never goes below zero, but it
// does not touch the redeemed counter.
func (r *PointsRepository) Adjust(ctx context.Context, accountID string, delta float64, meta EntryMeta) error {
	if delta == 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var result sql.Result
	if delta > 0 {
		result, err = tx.ExecContext(ctx2, `
			UPDATE accounts
			SET total_points = total_points + $2,
			    available_points = available_points + $2,
			    updated_at = NOW()
			WHERE id = $1
		`, accountID, delta)
	} else {
		result, err = tx.ExecContext(ctx2, `
			UPDATE accounts
			SET available_points = available_points + $2,
			    updated_at = NOW()
			WHERE id = $1 AND available_points >= -$2
		`, accountID, delta)
	}
	if err != nil {
		return fmt.Errorf("%w: update account balance", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		if delta > 0 {
			return ErrAccountNotFound
		}
		var exists bool
		if err := tx.QueryRowContext(ctx2, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
			return fmt.Errorf("%w: check account", ErrInternal)
		}
		if !exists {
			return ErrAccountNotFound
		}
		return ErrInsufficientBalance
	}

	if err := r.insertEntry(ctx2, tx, accountID, delta, string(EntryTypeAdjustment), meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

func (r *PointsRepository) GetBalance(ctx context.Context, accountID string) (Balance, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance Balance
	err := r.db.GetContext(ctx2, &balance, `
		SELECT total_points, available_points, redeemed_points
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Balance{}, ErrAccountNotFound
		}
		return Balance{}, fmt.Errorf("%w: get balance", ErrInternal)
	}

	return balance, nil
}

func (r *PointsRepository) ListEntries(ctx context.Context, accountID string, pagination Pagination) ([]Entry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	entries := make([]Entry, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT id, account_id, points_delta, entry_type, related_entity_type, related_entity_id, description, created_at
		FROM points_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries", ErrInternal)
	}

	return entries, nil
}

func (r *PointsRepository) insertEntry(ctx context.Context, tx *sqlx.Tx, accountID string, pointsDelta float64, entryType string, meta EntryMeta) error {
	entryType = strings.TrimSpace(entryType)
	if entryType == "" {
		entryType = string(EntryTypeAdjustment)
	}

	switch EntryType(entryType) {
	case EntryTypeEarn, EntryTypeRedeem, EntryTypeReferral, EntryTypeRefund, EntryTypeAdjustment:
	default:
		return ErrInternal
	}

	if strings.TrimSpace(meta.Description) == "" {
		meta.Description = "points balance change"
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO points_entries (
			id, account_id, points_delta, entry_type, related_entity_type, related_entity_id, description
		)
		VALUES (
			gen_random_uuid(), $1, $2, $3, $4, $5, $6
		)
	`, accountID, pointsDelta, entryType, meta.RelatedEntityType, meta.RelatedEntityID, meta.Description)
	if err != nil {
		return fmt.Errorf("%w: insert entry", ErrInternal)
	}

	return nil
}
