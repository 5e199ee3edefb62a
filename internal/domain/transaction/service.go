package transaction

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fuelstop/fuelstop-api/internal/domain/ledger"
	"github.com/fuelstop/fuelstop-api/internal/domain/pricing"
	"github.com/fuelstop/fuelstop-api/internal/domain/redemption"
)

// receiptAttempts caps receipt regeneration on unique violations
const receiptAttempts = 5

// PointsLedger credits earned points. Satisfied by ledger.Service.
type PointsLedger interface {
	Credit(ctx context.Context, accountID uuid.UUID, points float64, entryType ledger.EntryType, meta ledger.Meta) error
}

// PriceLookup returns the live fuel price. Satisfied by pricing.Service.
type PriceLookup interface {
	CurrentPrice(ctx context.Context, fuelType string) (*pricing.FuelPrice, error)
}

// CreditApplier consumes approved redemption credits against a purchase.
// Satisfied by redemption.Service.
type CreditApplier interface {
	Get(ctx context.Context, id uuid.UUID) (*redemption.Redemption, error)
	Apply(ctx context.Context, id, accountID, txID uuid.UUID) error
}

// Notifier tells the customer their points landed.
// Satisfied by notification.Service.
type Notifier interface {
	NotifyPointsEarned(ctx context.Context, accountID uuid.UUID, points float64, transactionID uuid.UUID)
}

// RecordParams are the inputs from the pump attendant
type RecordParams struct {
	AccountID     uuid.UUID
	FuelType      string
	Liters        float64
	PaymentMethod string
	RedemptionID  *uuid.UUID
	IsDouble      bool
	RecordedBy    uuid.UUID
}

// Service records fuel purchases and the points they earn.
type Service interface {
	Record(ctx context.Context, params RecordParams) (*Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Mine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Transaction, error)
	List(ctx context.Context, filters ListFilters) ([]Transaction, int, error)
	Stats(ctx context.Context) (*Stats, error)

	// RecordReferralBonus writes the zero-amount audit row for a referral bonus
	RecordReferralBonus(ctx context.Context, referrerID, referredID uuid.UUID, points float64, referredName string) error
}

type service struct {
	repo     Repository
	points   PointsLedger
	prices   PriceLookup
	credits  CreditApplier
	notifier Notifier
}

// NewService creates a transaction service. credits and notifier may be nil.
func NewService(repo Repository, points PointsLedger, prices PriceLookup, credits CreditApplier, notifier Notifier) Service {
	return &service{
		repo:     repo,
		points:   points,
		prices:   prices,
		credits:  credits,
		notifier: notifier,
	}
}

// Record writes a fuel purchase, consumes an optional redemption credit and
// awards loyalty points. One point per 100 rupees, doubled during promos.
func (s *service) Record(ctx context.Context, params RecordParams) (*Transaction, error) {
	if params.Liters <= 0 {
		return nil, ErrInvalidLiters
	}

	price, err := s.prices.CurrentPrice(ctx, params.FuelType)
	if err != nil {
		return nil, err
	}

	total := round2(params.Liters * price.PricePerLiter)
	txID := uuid.New()

	var cashback float64
	var redemptionID uuid.NullUUID

	if params.RedemptionID != nil {
		if s.credits == nil {
			return nil, redemption.ErrNotFound
		}

		red, err := s.credits.Get(ctx, *params.RedemptionID)
		if err != nil {
			return nil, err
		}
		if red.AccountID != params.AccountID {
			return nil, redemption.ErrNotOwner
		}
		if red.CashValue > total {
			return nil, ErrCashbackExceedsTotal
		}

		// Single-use: the conditional update inside Apply makes sure the
		// same credit can never pay for two purchases
		if err := s.credits.Apply(ctx, red.ID, params.AccountID, txID); err != nil {
			return nil, err
		}

		cashback = red.CashValue
		redemptionID = uuid.NullUUID{UUID: red.ID, Valid: true}
	}

	points := math.Floor(total / 100)
	if params.IsDouble {
		points *= 2
	}

	tx := &Transaction{
		ID:              txID,
		AccountID:       params.AccountID,
		Type:            TypeFuel,
		FuelType:        sql.NullString{String: strings.ToLower(params.FuelType), Valid: true},
		Liters:          params.Liters,
		PricePerLiter:   price.PricePerLiter,
		TotalAmount:     total,
		CashbackApplied: cashback,
		RedemptionID:    redemptionID,
		FinalAmount:     math.Max(0, round2(total-cashback)),
		PaymentMethod:   sql.NullString{String: params.PaymentMethod, Valid: params.PaymentMethod != ""},
		PointsEarned:    points,
		IsDouble:        params.IsDouble,
		RecordedBy:      uuid.NullUUID{UUID: params.RecordedBy, Valid: params.RecordedBy != uuid.Nil},
	}

	if err := s.createWithReceipt(ctx, tx); err != nil {
		if cashback > 0 {
			// The credit was already consumed, this needs an operator
			log.Error().
				Err(err).
				Str("redemption_id", redemptionID.UUID.String()).
				Msg("transaction insert failed after credit was applied")
		}
		return nil, err
	}

	if points > 0 {
		err := s.points.Credit(ctx, params.AccountID, points, ledger.EntryTypeEarn, ledger.Meta{
			RelatedEntityType: "transaction",
			RelatedEntityID:   tx.ID,
			Description:       "points earned on receipt " + tx.ReceiptNumber,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("transaction_id", tx.ID.String()).
				Float64("points", points).
				Msg("failed to credit earned points")
		} else if s.notifier != nil {
			s.notifier.NotifyPointsEarned(ctx, params.AccountID, points, tx.ID)
		}
	}

	return tx, nil
}

// RecordReferralBonus writes a zero-amount referral row so the bonus shows
// up in the customer's transaction history
func (s *service) RecordReferralBonus(ctx context.Context, referrerID, referredID uuid.UUID, points float64, referredName string) error {
	tx := &Transaction{
		ID:           uuid.New(),
		AccountID:    referrerID,
		Type:         TypeReferral,
		PointsEarned: points,
		RecordedBy:   uuid.NullUUID{UUID: referredID, Valid: true},
		Description:  sql.NullString{String: "Referral Bonus: " + referredName, Valid: true},
	}

	return s.createWithReceipt(ctx, tx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrNotFound
	}

	return tx, nil
}

func (s *service) Mine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	return s.repo.List(ctx, filters)
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// createWithReceipt inserts the row, regenerating the receipt number on a
// unique violation
func (s *service) createWithReceipt(ctx context.Context, tx *Transaction) error {
	for attempt := 0; attempt < receiptAttempts; attempt++ {
		tx.ReceiptNumber = NewReceiptNumber(time.Now())

		err := s.repo.Create(ctx, tx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrReceiptCollision) {
			return err
		}
	}

	return ErrReceiptCollision
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
