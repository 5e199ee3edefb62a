package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// NewAccountParams carries everything needed to register an account.
type NewAccountParams struct {
	Name          string
	Email         string
	Phone         string
	PasswordHash  string
	Role          Role
	VehicleNumber string
}

// UpdateParams carries mutable profile fields. Nil means leave unchanged.
type UpdateParams struct {
	Name          *string
	Phone         *string
	VehicleNumber *string
}

// Service exposes account management operations.
type Service interface {
	Create(ctx context.Context, params NewAccountParams) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByReferralCode(ctx context.Context, code string) (*Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateParams) (*Account, error)
	SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
	ListCustomers(ctx context.Context, filters ListFilters) ([]Account, int, error)
	TopCustomers(ctx context.Context, limit int) ([]Account, error)
	AdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// service implements the Service interface
type service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Create registers a new account with a freshly generated referral code.
// Code collisions are rare (36^6 space) but possible, so creation retries
// with a new code a few times before giving up.
func (s *service) Create(ctx context.Context, params NewAccountParams) (*Account, error) {
	role := params.Role
	if role == "" {
		role = RoleCustomer
	}

	acc := &Account{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(params.Name),
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		Phone:        strings.TrimSpace(params.Phone),
		PasswordHash: params.PasswordHash,
		Role:         role,
		IsActive:     true,
	}
	if v := strings.TrimSpace(params.VehicleNumber); v != "" {
		acc.VehicleNumber = sql.NullString{String: v, Valid: true}
	}

	for attempt := 0; attempt < 5; attempt++ {
		code, err := NewReferralCode()
		if err != nil {
			return nil, err
		}
		acc.ReferralCode = code

		err = s.repo.Create(ctx, acc)
		if err == nil {
			return acc, nil
		}
		if errors.Is(err, ErrCodeCollision) {
			continue
		}
		return nil, err
	}

	return nil, ErrCodeCollision
}

// GetByID returns an account by ID
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrNotFound
	}
	return acc, nil
}

// GetByEmail returns an account by email
func (s *service) GetByEmail(ctx context.Context, email string) (*Account, error) {
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrNotFound
	}
	return acc, nil
}

// GetByReferralCode returns an account by referral code (case-insensitive)
func (s *service) GetByReferralCode(ctx context.Context, code string) (*Account, error) {
	acc, err := s.repo.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrNotFound
	}
	return acc, nil
}

// UpdateProfile applies partial profile changes and returns the updated account
func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateParams) (*Account, error) {
	acc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		acc.Name = strings.TrimSpace(*params.Name)
	}
	if params.Phone != nil {
		acc.Phone = strings.TrimSpace(*params.Phone)
	}
	if params.VehicleNumber != nil {
		v := strings.TrimSpace(*params.VehicleNumber)
		acc.VehicleNumber = sql.NullString{String: v, Valid: v != ""}
	}

	if err := s.repo.Update(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// SetReferredBy records the referrer. No-op error if already set.
func (s *service) SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error {
	return s.repo.SetReferredBy(ctx, id, referrerID)
}

// Deactivate soft-disables an account
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

// Reactivate re-enables a previously deactivated account
func (s *service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

// ListCustomers returns customers for the admin panel
func (s *service) ListCustomers(ctx context.Context, filters ListFilters) ([]Account, int, error) {
	return s.repo.ListCustomers(ctx, filters)
}

// TopCustomers returns the top lifetime earners
func (s *service) TopCustomers(ctx context.Context, limit int) ([]Account, error) {
	return s.repo.TopCustomers(ctx, limit)
}

// AdminIDs returns the IDs of all active admins, used for fan-out notifications
func (s *service) AdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.AdminIDs(ctx)
}
