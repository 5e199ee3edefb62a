package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ListFilters controls admin customer listing.
type ListFilters struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

// Repository defines account data access interface
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByReferralCode(ctx context.Context, code string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ListCustomers(ctx context.Context, filters ListFilters) ([]Account, int, error)
	TopCustomers(ctx context.Context, limit int) ([]Account, error)
	AdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new account repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const accountColumns = `
	id, name, email, phone, password_hash, role, vehicle_number,
	total_points, available_points, redeemed_points,
	referral_code, referred_by, is_active, created_at, updated_at
`

// Create creates a new account
func (r *repository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, name, email, phone, password_hash, role, vehicle_number, referral_code, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Name,
		strings.ToLower(account.Email),
		account.Phone,
		account.PasswordHash,
		account.Role,
		account.VehicleNumber,
		account.ReferralCode,
		account.IsActive,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "email") {
				return ErrEmailTaken
			}
			if strings.Contains(pqErr.Constraint, "referral_code") {
				return ErrCodeCollision
			}
		}
		return fmt.Errorf("account repository create: %w", err)
	}

	return nil
}

// GetByID returns account by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	var account Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// GetByEmail returns account by email
func (r *repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	var account Account
	err := r.db.GetContext(ctx, &account, query, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// GetByReferralCode returns account by referral code, matched case-insensitively
func (r *repository) GetByReferralCode(ctx context.Context, code string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE UPPER(referral_code) = UPPER($1)`

	var account Account
	err := r.db.GetContext(ctx, &account, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// Update updates mutable profile fields
func (r *repository) Update(ctx context.Context, account *Account) error {
	query := `
		UPDATE accounts
		SET name = $2, phone = $3, vehicle_number = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, account.ID, account.Name, account.Phone, account.VehicleNumber)
	if err != nil {
		return fmt.Errorf("account repository update: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("account repository update: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SetReferredBy records who referred this account. Set once at registration.
func (r *repository) SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error {
	query := `UPDATE accounts SET referred_by = $2, updated_at = NOW() WHERE id = $1 AND referred_by IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, referrerID)
	if err != nil {
		return fmt.Errorf("account repository set referred by: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("account repository set referred by: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SetActive activates or deactivates an account. Accounts are never hard deleted,
// their points history has to stay auditable.
func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE accounts SET is_active = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("account repository set active: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("account repository set active: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePassword updates the password hash
func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("account repository update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("account repository update password: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListCustomers returns customer accounts with optional search, plus total count
func (r *repository) ListCustomers(ctx context.Context, filters ListFilters) ([]Account, int, error) {
	where := `WHERE role = 'customer'`
	args := make([]interface{}, 0, 4)
	idx := 1

	if s := strings.TrimSpace(filters.Search); s != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", idx, idx, idx)
		args = append(args, "%"+s+"%")
		idx++
	}
	if filters.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", idx)
		args = append(args, *filters.IsActive)
		idx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM accounts `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("account repository count customers: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + accountColumns + ` FROM accounts ` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	accounts := make([]Account, 0)
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("account repository list customers: %w", err)
	}

	return accounts, total, nil
}

// TopCustomers returns the highest lifetime earners for the admin dashboard
func (r *repository) TopCustomers(ctx context.Context, limit int) ([]Account, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE role = 'customer' AND is_active = true
		ORDER BY total_points DESC, created_at ASC
		LIMIT $1`

	accounts := make([]Account, 0)
	if err := r.db.SelectContext(ctx, &accounts, query, limit); err != nil {
		return nil, fmt.Errorf("account repository top customers: %w", err)
	}

	return accounts, nil
}

// AdminIDs returns the IDs of all active admin accounts
func (r *repository) AdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM accounts WHERE role = 'admin' AND is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("account repository admin ids: %w", err)
	}
	return ids, nil
}
