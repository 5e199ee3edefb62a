package order

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fuelstop/fuelstop-api/internal/domain/ledger"
	"github.com/fuelstop/fuelstop-api/internal/domain/pricing"
)

// PointsLedger is the slice of the points ledger orders need.
// Satisfied by ledger.Service.
type PointsLedger interface {
	Credit(ctx context.Context, accountID uuid.UUID, points float64, entryType ledger.EntryType, meta ledger.Meta) error
	Debit(ctx context.Context, accountID uuid.UUID, points float64, meta ledger.Meta) error
	GetBalance(ctx context.Context, accountID uuid.UUID) (ledger.Balance, error)
}

// PriceLookup validates the fuel type against the live price board.
// Satisfied by pricing.Service.
type PriceLookup interface {
	CurrentPrice(ctx context.Context, fuelType string) (*pricing.FuelPrice, error)
}

// Refunder returns money to the customer through the payment gateway.
// Satisfied by the payment service.
type Refunder interface {
	Refund(ctx context.Context, paymentID string, amount float64) (string, error)
}

// Notifier pushes order lifecycle updates to the customer.
// Satisfied by notification.Service.
type Notifier interface {
	NotifyOrderStatus(ctx context.Context, accountID uuid.UUID, status string, orderID string)
}

// Policy holds the tunable order business rules
type Policy struct {
	// Minimum points a customer may apply as fuel credits
	MinCreditsApplied float64

	// Rupees of final amount per loyalty point earned
	PointsDivisor float64

	// How long an unpaid or undispensed order stays redeemable
	PickupWindow time.Duration

	// Applied fuel credits are not returned when the customer cancels
	ForfeitCreditsOnCancel bool
}

// DefaultPolicy matches production settings
func DefaultPolicy() Policy {
	return Policy{
		MinCreditsApplied:      10,
		PointsDivisor:          50,
		PickupWindow:           24 * time.Hour,
		ForfeitCreditsOnCancel: true,
	}
}

// CreateParams are the inputs for placing an order
type CreateParams struct {
	AccountID      uuid.UUID
	FuelType       string
	Liters         float64
	CreditsApplied float64
	PaymentMethod  string
}

// VerifyResult is what the pump operator sees after scanning a QR code
type VerifyResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Order  *Order `json:"order,omitempty"`
}

// Service exposes the prepaid order workflow.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Mine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Order, error)
	List(ctx context.Context, filters ListFilters) ([]Order, int, error)
	Stats(ctx context.Context) (*Stats, error)

	MarkPaid(ctx context.Context, id, gatewayOrderID, paymentID string) (*Order, error)
	Complete(ctx context.Context, id string, adminID uuid.UUID) (*Order, error)
	Cancel(ctx context.Context, id string, requesterID uuid.UUID, isAdmin bool, reason string) (*Order, error)
	Verify(ctx context.Context, qrContent string) (*VerifyResult, error)
}

type service struct {
	repo     Repository
	points   PointsLedger
	prices   PriceLookup
	refunder Refunder
	notifier Notifier
	policy   Policy
}

// NewService creates a new order service. refunder and notifier may be nil.
func NewService(repo Repository, points PointsLedger, prices PriceLookup, refunder Refunder, notifier Notifier, policy Policy) Service {
	return &service{
		repo:     repo,
		points:   points,
		prices:   prices,
		refunder: refunder,
		notifier: notifier,
		policy:   policy,
	}
}

// Create places a prepaid order. Applied fuel credits are debited from the
// points balance immediately so a customer cannot spend the same points on
// two concurrent orders.
func (s *service) Create(ctx context.Context, params CreateParams) (*Order, error) {
	if params.Liters <= 0 {
		return nil, ErrInvalidLiters
	}

	// Snapshot the price so the order is immune to later board changes
	price, err := s.prices.CurrentPrice(ctx, params.FuelType)
	if err != nil {
		return nil, err
	}

	total := round2(params.Liters * price.PricePerLiter)

	credits := params.CreditsApplied
	if credits > 0 {
		if credits < s.policy.MinCreditsApplied {
			return nil, ErrBelowMinimumCredits
		}
		// The requested amount must be affordable as asked. Clamping first
		// would let a 200-credit request through on a 50-rupee order with
		// only 100 points in the account.
		balance, err := s.points.GetBalance(ctx, params.AccountID)
		if err != nil {
			return nil, err
		}
		if credits > balance.AvailablePoints {
			return nil, ErrInsufficientCredits
		}
		// Credits never exceed what the order costs
		if credits > total {
			credits = total
		}
	} else {
		credits = 0
	}

	o := &Order{
		ID:             NewOrderID(),
		AccountID:      params.AccountID,
		FuelType:       strings.ToLower(params.FuelType),
		Liters:         params.Liters,
		PricePerLiter:  price.PricePerLiter,
		TotalAmount:    total,
		CreditsApplied: credits,
		FinalAmount:    round2(total - credits),
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		PaymentMethod:  params.PaymentMethod,
		ExpiresAt:      time.Now().Add(s.policy.PickupWindow),
	}
	o.PointsEarned = round2(o.FinalAmount / s.policy.PointsDivisor)

	if credits > 0 {
		err := s.points.Debit(ctx, params.AccountID, credits, ledger.Meta{
			RelatedEntityType: "order",
			Description:       "fuel credits applied to order " + o.ID,
		})
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientBalance) {
				return nil, ErrInsufficientCredits
			}
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, o); err != nil {
		// Give the debited credits back, the order never existed
		if credits > 0 {
			if refundErr := s.points.Credit(ctx, params.AccountID, credits, ledger.EntryTypeRefund, ledger.Meta{
				RelatedEntityType: "order",
				Description:       "fuel credits returned, order creation failed",
			}); refundErr != nil {
				log.Error().
					Err(refundErr).
					Str("account_id", params.AccountID.String()).
					Float64("credits", credits).
					Msg("failed to return credits after order creation failure")
			}
		}
		return nil, err
	}

	return o, nil
}

func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}

	return s.expireStale(ctx, o), nil
}

func (s *service) Mine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	orders, err := s.repo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range orders {
		if orders[i].IsExpired(now) {
			orders[i].Status = StatusExpired
		}
	}

	return orders, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]Order, int, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	orders, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	for i := range orders {
		if orders[i].IsExpired(now) {
			orders[i].Status = StatusExpired
		}
	}

	return orders, total, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// MarkPaid records a confirmed gateway payment
func (s *service) MarkPaid(ctx context.Context, id, gatewayOrderID, paymentID string) (*Order, error) {
	if err := s.repo.MarkPaid(ctx, id, gatewayOrderID, paymentID); err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}

	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(ctx, o.AccountID, "paid", o.ID)
	}

	return o, nil
}

// Complete marks the order dispensed and awards the earned points.
// The conditional update in the repository guarantees the points are
// credited at most once even under concurrent completion attempts.
func (s *service) Complete(ctx context.Context, id string, adminID uuid.UUID) (*Order, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.IsExpired(time.Now()) {
		if err := s.repo.MarkExpired(ctx, id); err != nil {
			log.Warn().Err(err).Str("order_id", id).Msg("failed to persist order expiry")
		}
		return nil, ErrExpired
	}

	o, err := s.repo.Complete(ctx, id, adminID)
	if err != nil {
		return nil, err
	}

	if o.PointsEarned > 0 {
		err := s.points.Credit(ctx, o.AccountID, o.PointsEarned, ledger.EntryTypeEarn, ledger.Meta{
			RelatedEntityType: "order",
			Description:       "points earned on order " + o.ID,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("order_id", o.ID).
				Float64("points", o.PointsEarned).
				Msg("failed to credit points for completed order")
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(ctx, o.AccountID, "completed", o.ID)
	}

	return o, nil
}

// Cancel voids a pending order. A paid order is refunded in full through
// the gateway. Applied fuel credits are forfeited unless policy says
// otherwise.
func (s *service) Cancel(ctx context.Context, id string, requesterID uuid.UUID, isAdmin bool, reason string) (*Order, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if !isAdmin && existing.AccountID != requesterID {
		return nil, ErrNotFound
	}
	if existing.IsExpired(time.Now()) {
		if err := s.repo.MarkExpired(ctx, id); err != nil {
			log.Warn().Err(err).Str("order_id", id).Msg("failed to persist order expiry")
		}
		return nil, ErrExpired
	}

	o, err := s.repo.Cancel(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	// The order records a gross-total refund, but the gateway can only
	// return what it actually charged, which is the final amount after
	// credits. Orders settled entirely with credits never touched the
	// gateway and have nothing to refund there.
	if o.PaymentStatus == PaymentPaid && o.PaymentID.Valid && o.FinalAmount > 0 && s.refunder != nil {
		refundID, err := s.refunder.Refund(ctx, o.PaymentID.String, o.FinalAmount)
		if err != nil {
			log.Error().
				Err(err).
				Str("order_id", o.ID).
				Str("payment_id", o.PaymentID.String).
				Msg("gateway refund failed, needs manual retry")
		} else if err := s.repo.SetRefund(ctx, o.ID, refundID, o.TotalAmount, PaymentRefunded); err != nil {
			log.Error().Err(err).Str("order_id", o.ID).Msg("failed to record refund")
		} else {
			o.PaymentStatus = PaymentRefunded
			o.RefundAmount = o.TotalAmount
		}
	}

	if !s.policy.ForfeitCreditsOnCancel && o.CreditsApplied > 0 {
		err := s.points.Credit(ctx, o.AccountID, o.CreditsApplied, ledger.EntryTypeRefund, ledger.Meta{
			RelatedEntityType: "order",
			Description:       "fuel credits returned for cancelled order " + o.ID,
		})
		if err != nil {
			log.Error().Err(err).Str("order_id", o.ID).Msg("failed to return credits on cancel")
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(ctx, o.AccountID, "cancelled", o.ID)
	}

	return o, nil
}

// Verify is what the pump operator calls after scanning the customer's QR
// code. An order is dispensable only while pending and paid.
func (s *service) Verify(ctx context.Context, qrContent string) (*VerifyResult, error) {
	id := ParseQR(qrContent)
	if id == "" {
		return nil, ErrNotFound
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}

	o = s.expireStale(ctx, o)

	result := &VerifyResult{Order: o}
	switch {
	case o.Status == StatusExpired:
		result.Reason = "order expired"
	case o.Status == StatusCompleted:
		result.Reason = "order already completed"
	case o.Status == StatusCancelled:
		result.Reason = "order cancelled"
	case o.PaymentStatus != PaymentPaid:
		result.Reason = "order not paid"
	default:
		result.Valid = true
	}

	return result, nil
}

// expireStale persists lazy expiry discovered on read
func (s *service) expireStale(ctx context.Context, o *Order) *Order {
	if !o.IsExpired(time.Now()) {
		return o
	}

	if err := s.repo.MarkExpired(ctx, o.ID); err != nil {
		log.Warn().Err(err).Str("order_id", o.ID).Msg("failed to persist order expiry")
	}
	o.Status = StatusExpired

	return o
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
