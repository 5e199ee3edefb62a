package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Meta describes what caused a balance change.
type Meta struct {
	RelatedEntityType string
	RelatedEntityID   uuid.UUID
	Description       string
}

// Service exposes points accounting to the rest of the application.
type Service interface {
	Credit(ctx context.Context, accountID uuid.UUID, points float64, entryType EntryType, meta Meta) error
	Debit(ctx context.Context, accountID uuid.UUID, points float64, meta Meta) error
	DebitTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, points float64, meta Meta) error
	Adjust(ctx context.Context, accountID uuid.UUID, delta float64, meta Meta) error
	GetBalance(ctx context.Context, accountID uuid.UUID) (Balance, error)
	History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, error)
}

// service implements the Service interface
type service struct {
	repo Repository
}

// NewService creates a new points ledger service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Credit atomically awards points to an account.
// Used on order completion, fuel transactions and referral bonuses.
func (s *service) Credit(ctx context.Context, accountID uuid.UUID, points float64, entryType EntryType, meta Meta) error {
	if points <= 0 {
		return ErrInvalidAmount
	}

	return s.repo.Credit(ctx, accountID.String(), points, string(entryType), toEntryMeta(meta))
}

// Debit atomically spends available points.
// Used when placing an order with fuel credits.
func (s *service) Debit(ctx context.Context, accountID uuid.UUID, points float64, meta Meta) error {
	if points <= 0 {
		return ErrInvalidAmount
	}

	return s.repo.Debit(ctx, accountID.String(), points, toEntryMeta(meta))
}

// DebitTx spends points within an external transaction (FOR UPDATE row lock).
// Used when the debit must commit together with another write, such as
// approving a redemption.
func (s *service) DebitTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, points float64, meta Meta) error {
	if points <= 0 {
		return ErrInvalidAmount
	}

	return s.repo.DebitTx(ctx, tx, accountID.String(), points, toEntryMeta(meta))
}

// Adjust applies a signed admin correction to an account's balance.
func (s *service) Adjust(ctx context.Context, accountID uuid.UUID, delta float64, meta Meta) error {
	if delta == 0 {
		return ErrInvalidAmount
	}

	return s.repo.Adjust(ctx, accountID.String(), delta, toEntryMeta(meta))
}

// GetBalance returns the current points counters for an account
func (s *service) GetBalance(ctx context.Context, accountID uuid.UUID) (Balance, error) {
	return s.repo.GetBalance(ctx, accountID.String())
}

// History returns paginated ledger entries for an account
func (s *service) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	return s.repo.ListEntries(ctx, accountID.String(), Pagination{Limit: limit, Offset: offset})
}

func toEntryMeta(meta Meta) EntryMeta {
	out := EntryMeta{Description: meta.Description}

	if meta.RelatedEntityType != "" {
		out.RelatedEntityType = &meta.RelatedEntityType
	}

	if meta.RelatedEntityID != uuid.Nil {
		idStr := meta.RelatedEntityID.String()
		out.RelatedEntityID = &idStr
	}

	return out
}
