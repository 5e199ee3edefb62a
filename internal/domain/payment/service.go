package payment

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fuelstop/fuelstop-api/internal/domain/order"
	"github.com/fuelstop/fuelstop-api/internal/pkg/razorpay"
)

// Gateway is the slice of the Razorpay client we use.
// Satisfied by razorpay.Client.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*razorpay.Order, error)
	CreateRefund(ctx context.Context, paymentID string, amount float64) (*razorpay.Refund, error)
}

// Orders is the slice of the order service payments need.
type Orders interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	MarkPaid(ctx context.Context, id, gatewayOrderID, paymentID string) (*order.Order, error)
}

// Config carries the gateway secrets used for signature verification
type Config struct {
	KeySecret     string
	WebhookSecret string
}

// CheckoutSession is what the client needs to open the Razorpay checkout
type CheckoutSession struct {
	PaymentID      uuid.UUID `json:"payment_id"`
	OrderID        string    `json:"order_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
}

// Service drives the payment leg of the order workflow.
type Service interface {
	// Checkout creates a gateway order for the fuel order's final amount.
	// A fully credit-covered order is marked paid without touching the gateway.
	Checkout(ctx context.Context, orderID string, accountID uuid.UUID) (*CheckoutSession, error)

	// Confirm validates the checkout callback signature and marks everything paid
	Confirm(ctx context.Context, accountID uuid.UUID, gatewayOrderID, gatewayPaymentID, signature string) (*Payment, error)

	// Status returns the payment backing an order
	Status(ctx context.Context, orderID string, accountID uuid.UUID, isAdmin bool) (*Payment, error)

	// Refund returns money through the gateway. Implements order.Refunder.
	Refund(ctx context.Context, gatewayPaymentID string, amount float64) (string, error)

	// Webhook processes a raw gateway webhook delivery
	Webhook(ctx context.Context, body []byte, signature string) error
}

type service struct {
	repo    Repository
	gateway Gateway
	orders  Orders
	cfg     Config
}

// NewService creates a payment service
func NewService(repo Repository, gateway Gateway, orders Orders, cfg Config) Service {
	return &service{repo: repo, gateway: gateway, orders: orders, cfg: cfg}
}

// internalReference marks orders settled entirely with fuel credits
const internalReference = "internal:credits"

func (s *service) Checkout(ctx context.Context, orderID string, accountID uuid.UUID) (*CheckoutSession, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.AccountID != accountID {
		return nil, order.ErrNotFound
	}
	if o.Status != order.StatusPending || o.PaymentStatus != order.PaymentPending {
		return nil, ErrConflict
	}

	// Credits covered the whole order, nothing for the gateway to do
	if o.FinalAmount <= 0 {
		if _, err := s.orders.MarkPaid(ctx, o.ID, internalReference, internalReference); err != nil {
			return nil, err
		}
		return &CheckoutSession{
			OrderID:        o.ID,
			GatewayOrderID: internalReference,
			Amount:         0,
			Currency:       "INR",
		}, nil
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, o.FinalAmount, "INR", o.ID)
	if err != nil {
		return nil, err
	}

	p := &Payment{
		ID:             uuid.New(),
		OrderID:        o.ID,
		AccountID:      accountID,
		GatewayOrderID: gwOrder.ID,
		Amount:         o.FinalAmount,
		Currency:       gwOrder.Currency,
		Status:         StatusCreated,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return &CheckoutSession{
		PaymentID:      p.ID,
		OrderID:        o.ID,
		GatewayOrderID: gwOrder.ID,
		Amount:         p.Amount,
		Currency:       p.Currency,
	}, nil
}

func (s *service) Confirm(ctx context.Context, accountID uuid.UUID, gatewayOrderID, gatewayPaymentID, signature string) (*Payment, error) {
	p, err := s.repo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.AccountID != accountID {
		return nil, ErrNotOwner
	}

	if !razorpay.VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, s.cfg.KeySecret) {
		if err := s.repo.MarkFailed(ctx, gatewayOrderID, "signature verification failed"); err != nil {
			log.Warn().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to mark payment failed")
		}
		return nil, ErrBadSignature
	}

	if err := s.settle(ctx, p, gatewayPaymentID); err != nil {
		return nil, err
	}

	return s.repo.GetByGatewayOrderID(ctx, gatewayOrderID)
}

func (s *service) Status(ctx context.Context, orderID string, accountID uuid.UUID, isAdmin bool) (*Payment, error) {
	p, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if !isAdmin && p.AccountID != accountID {
		return nil, ErrNotFound
	}

	return p, nil
}

// Refund pushes money back through the gateway and records it. A payment
// already fully refunded conflicts instead of double refunding.
func (s *service) Refund(ctx context.Context, gatewayPaymentID string, amount float64) (string, error) {
	p, err := s.repo.GetByGatewayPaymentID(ctx, gatewayPaymentID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", ErrNotFound
	}
	if p.Status == StatusRefunded || p.Status == StatusFailed || p.Status == StatusCreated {
		return "", ErrConflict
	}
	if amount <= 0 || amount+p.RefundAmount > p.Amount {
		return "", ErrConflict
	}

	refund, err := s.gateway.CreateRefund(ctx, gatewayPaymentID, amount)
	if err != nil {
		return "", err
	}

	status := StatusRefunded
	if amount+p.RefundAmount < p.Amount {
		status = StatusPartialRefund
	}

	if err := s.repo.SetRefund(ctx, p.ID.String(), refund.ID, amount, status); err != nil {
		log.Error().
			Err(err).
			Str("payment_id", p.ID.String()).
			Str("refund_id", refund.ID).
			Msg("gateway refund succeeded but local record failed")
		return refund.ID, err
	}

	return refund.ID, nil
}

// webhookEvent is the subset of Razorpay's webhook payload we act on
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Webhook settles payments the checkout callback missed. Deliveries are
// retried by Razorpay, so every branch tolerates replays.
func (s *service) Webhook(ctx context.Context, body []byte, signature string) error {
	if !razorpay.VerifyWebhookSignature(body, signature, s.cfg.WebhookSecret) {
		return ErrBadSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return err
	}

	entity := event.Payload.Payment.Entity

	switch event.Event {
	case "payment.captured":
		p, err := s.repo.GetByGatewayOrderID(ctx, entity.OrderID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrNotFound
		}

		err = s.settle(ctx, p, entity.ID)
		if errors.Is(err, ErrConflict) {
			// Already settled by the checkout callback
			return nil
		}
		return err

	case "payment.failed":
		reason := entity.ErrorDescription
		if reason == "" {
			reason = "payment failed"
		}
		return s.repo.MarkFailed(ctx, entity.OrderID, reason)

	default:
		log.Debug().Str("event", event.Event).Msg("ignoring webhook event")
		return nil
	}
}

// settle marks the payment and its order paid
func (s *service) settle(ctx context.Context, p *Payment, gatewayPaymentID string) error {
	if err := s.repo.MarkPaid(ctx, p.GatewayOrderID, gatewayPaymentID); err != nil {
		return err
	}

	if _, err := s.orders.MarkPaid(ctx, p.OrderID, p.GatewayOrderID, gatewayPaymentID); err != nil {
		if errors.Is(err, order.ErrConflict) {
			return nil
		}
		log.Error().
			Err(err).
			Str("order_id", p.OrderID).
			Msg("payment settled but order update failed")
		return err
	}

	return nil
}
