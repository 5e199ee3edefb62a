package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/domain/ledger"
	"github.com/fuelstop/fuelstop-api/internal/domain/order"
	"github.com/fuelstop/fuelstop-api/internal/domain/pricing"
	"github.com/fuelstop/fuelstop-api/internal/pkg/razorpay"
)

const testKeySecret = "test_key_secret"
const testWebhookSecret = "test_webhook_secret"

type fakePaymentRepo struct {
	payments map[uuid.UUID]*Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*Payment)}
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *Payment) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) find(match func(*Payment) bool) *Payment {
	for _, p := range f.payments {
		if match(p) {
			return p
		}
	}
	return nil
}

func (f *fakePaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	if p := f.find(func(p *Payment) bool { return p.OrderID == orderID }); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePaymentRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Payment, error) {
	if p := f.find(func(p *Payment) bool { return p.GatewayOrderID == gatewayOrderID }); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePaymentRepo) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*Payment, error) {
	if p := f.find(func(p *Payment) bool { return p.GatewayPaymentID.Valid && p.GatewayPaymentID.String == gatewayPaymentID }); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePaymentRepo) MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	p := f.find(func(p *Payment) bool { return p.GatewayOrderID == gatewayOrderID })
	if p == nil {
		return ErrNotFound
	}
	if p.Status != StatusCreated {
		return ErrConflict
	}
	p.Status = StatusPaid
	p.GatewayPaymentID.String, p.GatewayPaymentID.Valid = gatewayPaymentID, true
	return nil
}

func (f *fakePaymentRepo) MarkFailed(ctx context.Context, gatewayOrderID, reason string) error {
	p := f.find(func(p *Payment) bool { return p.GatewayOrderID == gatewayOrderID })
	if p == nil {
		return ErrNotFound
	}
	if p.Status == StatusCreated {
		p.Status = StatusFailed
		p.FailureReason.String, p.FailureReason.Valid = reason, true
	}
	return nil
}

func (f *fakePaymentRepo) SetRefund(ctx context.Context, id string, refundID string, amount float64, status Status) error {
	for _, p := range f.payments {
		if p.ID.String() == id {
			if p.Status != StatusPaid && p.Status != StatusPartialRefund {
				return ErrConflict
			}
			p.RefundID.String, p.RefundID.Valid = refundID, true
			p.RefundAmount += amount
			p.Status = status
			return nil
		}
	}
	return ErrNotFound
}

type fakeGateway struct {
	orders  int
	refunds int

	refundErr error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*razorpay.Order, error) {
	f.orders++
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_gw_%d", f.orders),
		Amount:   razorpay.ToMinorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) CreateRefund(ctx context.Context, paymentID string, amount float64) (*razorpay.Refund, error) {
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunds++
	return &razorpay.Refund{
		ID:        fmt.Sprintf("rfnd_gw_%d", f.refunds),
		Amount:    razorpay.ToMinorUnits(amount),
		PaymentID: paymentID,
		Status:    "processed",
	}, nil
}

type fakeOrders struct {
	orders map[string]*order.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string]*order.Order)}
}

func (f *fakeOrders) Get(ctx context.Context, id string) (*order.Order, error) {
	if o, ok := f.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, order.ErrNotFound
}

func (f *fakeOrders) MarkPaid(ctx context.Context, id, gatewayOrderID, paymentID string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if o.PaymentStatus != order.PaymentPending {
		return nil, order.ErrConflict
	}
	o.PaymentStatus = order.PaymentPaid
	o.GatewayOrderID.String, o.GatewayOrderID.Valid = gatewayOrderID, true
	o.PaymentID.String, o.PaymentID.Valid = paymentID, true
	cp := *o
	return &cp, nil
}

func newTestService(repo *fakePaymentRepo, gateway *fakeGateway, orders *fakeOrders) Service {
	return NewService(repo, gateway, orders, Config{
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
	})
}

func seedOrder(orders *fakeOrders, accountID uuid.UUID, finalAmount float64) *order.Order {
	o := &order.Order{
		ID:            order.NewOrderID(),
		AccountID:     accountID,
		FuelType:      "petrol",
		TotalAmount:   finalAmount,
		FinalAmount:   finalAmount,
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}
	orders.orders[o.ID] = o
	return o
}

func TestCheckoutAndConfirm(t *testing.T) {
	repo := newFakePaymentRepo()
	gateway := &fakeGateway{}
	orders := newFakeOrders()
	svc := newTestService(repo, gateway, orders)

	accountID := uuid.New()
	o := seedOrder(orders, accountID, 800)

	session, err := svc.Checkout(context.Background(), o.ID, accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Amount != 800 || session.GatewayOrderID == "" {
		t.Fatalf("unexpected session %+v", session)
	}
	if gateway.orders != 1 {
		t.Fatalf("expected one gateway order, got %d", gateway.orders)
	}

	sig := razorpay.SignPayment(session.GatewayOrderID, "pay_gw_1", testKeySecret)
	p, err := svc.Confirm(context.Background(), accountID, session.GatewayOrderID, "pay_gw_1", sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", p.Status)
	}
	if orders.orders[o.ID].PaymentStatus != order.PaymentPaid {
		t.Fatal("expected order marked paid")
	}

	// Replayed confirmation conflicts instead of double settling
	if _, err := svc.Confirm(context.Background(), accountID, session.GatewayOrderID, "pay_gw_1", sig); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on replay, got %v", err)
	}
}

func TestConfirmBadSignature(t *testing.T) {
	repo := newFakePaymentRepo()
	gateway := &fakeGateway{}
	orders := newFakeOrders()
	svc := newTestService(repo, gateway, orders)

	accountID := uuid.New()
	o := seedOrder(orders, accountID, 500)

	session, err := svc.Checkout(context.Background(), o.ID, accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Confirm(context.Background(), accountID, session.GatewayOrderID, "pay_gw_1", "deadbeef")
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}

	p, _ := repo.GetByGatewayOrderID(context.Background(), session.GatewayOrderID)
	if p.Status != StatusFailed {
		t.Fatalf("expected failed payment, got %s", p.Status)
	}
	if orders.orders[o.ID].PaymentStatus != order.PaymentPending {
		t.Fatal("order must stay unpaid after a bad signature")
	}
}

func TestCheckoutFullyCoveredByCredits(t *testing.T) {
	repo := newFakePaymentRepo()
	gateway := &fakeGateway{}
	orders := newFakeOrders()
	svc := newTestService(repo, gateway, orders)

	accountID := uuid.New()
	o := seedOrder(orders, accountID, 0)

	session, err := svc.Checkout(context.Background(), o.ID, accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Amount != 0 {
		t.Fatalf("expected zero amount, got %v", session.Amount)
	}
	if gateway.orders != 0 {
		t.Fatal("gateway must not be called for a fully covered order")
	}
	if orders.orders[o.ID].PaymentStatus != order.PaymentPaid {
		t.Fatal("expected order marked paid directly")
	}
}

func TestCheckoutSomeoneElsesOrder(t *testing.T) {
	repo := newFakePaymentRepo()
	orders := newFakeOrders()
	svc := newTestService(repo, &fakeGateway{}, orders)

	o := seedOrder(orders, uuid.New(), 300)

	if _, err := svc.Checkout(context.Background(), o.ID, uuid.New()); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestRefundOnce(t *testing.T) {
	repo := newFakePaymentRepo()
	gateway := &fakeGateway{}
	orders := newFakeOrders()
	svc := newTestService(repo, gateway, orders)

	accountID := uuid.New()
	o := seedOrder(orders, accountID, 1000)

	session, _ := svc.Checkout(context.Background(), o.ID, accountID)
	sig := razorpay.SignPayment(session.GatewayOrderID, "pay_gw_9", testKeySecret)
	if _, err := svc.Confirm(context.Background(), accountID, session.GatewayOrderID, "pay_gw_9", sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refundID, err := svc.Refund(context.Background(), "pay_gw_9", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refundID == "" {
		t.Fatal("expected a refund id")
	}

	p, _ := repo.GetByGatewayPaymentID(context.Background(), "pay_gw_9")
	if p.Status != StatusRefunded || p.RefundAmount != 1000 {
		t.Fatalf("expected fully refunded, got %s/%v", p.Status, p.RefundAmount)
	}

	// A second refund must conflict before reaching the gateway
	if _, err := svc.Refund(context.Background(), "pay_gw_9", 1000); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if gateway.refunds != 1 {
		t.Fatalf("expected one gateway refund, got %d", gateway.refunds)
	}
}

func TestPartialRefund(t *testing.T) {
	repo := newFakePaymentRepo()
	gateway := &fakeGateway{}
	orders := newFakeOrders()
	svc := newTestService(repo, gateway, orders)

	accountID := uuid.New()
	o := seedOrder(orders, accountID, 1000)

	session, _ := svc.Checkout(context.Background(), o.ID, accountID)
	sig := razorpay.SignPayment(session.GatewayOrderID, "pay_gw_5", testKeySecret)
	svc.Confirm(context.Background(), accountID, session.GatewayOrderID, "pay_gw_5", sig)

	if _, err := svc.Refund(context.Background(), "pay_gw_5", 400); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := repo.GetByGatewayPaymentID(context.Background(), "pay_gw_5")
	if p.Status != StatusPartialRefund || p.RefundAmount != 400 {
		t.Fatalf("expected partial refund of 400, got %s/%v", p.Status, p.RefundAmount)
	}

	// Refunding more than the remainder must be rejected
	if _, err := svc.Refund(context.Background(), "pay_gw_5", 700); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on over-refund, got %v", err)
	}
}

func TestWebhookSettlesPayment(t *testing.T) {
	repo := newFakePaymentRepo()
	gateway := &fakeGateway{}
	orders := newFakeOrders()
	svc := newTestService(repo, gateway, orders)

	accountID := uuid.New()
	o := seedOrder(orders, accountID, 600)
	session, _ := svc.Checkout(context.Background(), o.ID, accountID)

	body := []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_hook_1","order_id":"%s"}}}}`,
		session.GatewayOrderID,
	))
	sig := razorpay.SignWebhook(body, testWebhookSecret)

	if err := svc.Webhook(context.Background(), body, sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := repo.GetByGatewayOrderID(context.Background(), session.GatewayOrderID)
	if p.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", p.Status)
	}
	if orders.orders[o.ID].PaymentStatus != order.PaymentPaid {
		t.Fatal("expected order marked paid")
	}

	// Razorpay redelivers webhooks, a replay must not error
	if err := svc.Webhook(context.Background(), body, sig); err != nil {
		t.Fatalf("expected replay tolerated, got %v", err)
	}
}

func TestWebhookBadSignature(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestService(repo, &fakeGateway{}, newFakeOrders())

	body := []byte(`{"event":"payment.captured"}`)
	if err := svc.Webhook(context.Background(), body, "deadbeef"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

// The pieces below wire the real order service against the real payment
// service, mirroring the construction in cmd/api/main.go, so the refund leg
// of a cancellation runs through the actual over-refund guard.

type memOrderRepo struct {
	orders map[string]*order.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*order.Order)}
}

func (m *memOrderRepo) Create(ctx context.Context, o *order.Order) error {
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (m *memOrderRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]order.Order, error) {
	return nil, nil
}

func (m *memOrderRepo) List(ctx context.Context, filters order.ListFilters) ([]order.Order, int, error) {
	return nil, 0, nil
}

func (m *memOrderRepo) Stats(ctx context.Context) (*order.Stats, error) {
	return &order.Stats{}, nil
}

func (m *memOrderRepo) MarkPaid(ctx context.Context, id, gatewayOrderID, paymentID string) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != order.StatusPending || o.PaymentStatus != order.PaymentPending {
		return order.ErrConflict
	}
	o.PaymentStatus = order.PaymentPaid
	o.GatewayOrderID.String, o.GatewayOrderID.Valid = gatewayOrderID, true
	o.PaymentID.String, o.PaymentID.Valid = paymentID, true
	return nil
}

func (m *memOrderRepo) Complete(ctx context.Context, id string, adminID uuid.UUID) (*order.Order, error) {
	return nil, order.ErrConflict
}

func (m *memOrderRepo) Cancel(ctx context.Context, id, reason string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if !o.CanCancel() {
		return nil, order.ErrConflict
	}
	o.Status = order.StatusCancelled
	o.CancelReason.String, o.CancelReason.Valid = reason, reason != ""
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) MarkExpired(ctx context.Context, id string) error {
	return nil
}

func (m *memOrderRepo) SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error {
	return nil
}

func (m *memOrderRepo) SetRefund(ctx context.Context, id, refundID string, amount float64, paymentStatus order.PaymentStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.RefundID.String, o.RefundID.Valid = refundID, true
	o.RefundAmount = amount
	o.PaymentStatus = paymentStatus
	return nil
}

type memLedger struct {
	balances map[uuid.UUID]float64
}

func (m *memLedger) Credit(ctx context.Context, accountID uuid.UUID, points float64, entryType ledger.EntryType, meta ledger.Meta) error {
	m.balances[accountID] += points
	return nil
}

func (m *memLedger) Debit(ctx context.Context, accountID uuid.UUID, points float64, meta ledger.Meta) error {
	if m.balances[accountID] < points {
		return ledger.ErrInsufficientBalance
	}
	m.balances[accountID] -= points
	return nil
}

func (m *memLedger) GetBalance(ctx context.Context, accountID uuid.UUID) (ledger.Balance, error) {
	return ledger.Balance{AvailablePoints: m.balances[accountID]}, nil
}

type boardPrices struct{}

func (boardPrices) CurrentPrice(ctx context.Context, fuelType string) (*pricing.FuelPrice, error) {
	return &pricing.FuelPrice{FuelType: pricing.FuelType(fuelType), PricePerLiter: 100}, nil
}

// ordersBinding defers the order service the same way refunderBinding defers
// the payment service in main.go
type ordersBinding struct {
	svc order.Service
}

func (b *ordersBinding) Get(ctx context.Context, id string) (*order.Order, error) {
	return b.svc.Get(ctx, id)
}

func (b *ordersBinding) MarkPaid(ctx context.Context, id, gatewayOrderID, paymentID string) (*order.Order, error) {
	return b.svc.MarkPaid(ctx, id, gatewayOrderID, paymentID)
}

func TestCancelWithCreditsRefundsGatewayCharge(t *testing.T) {
	paymentRepo := newFakePaymentRepo()
	gateway := &fakeGateway{}
	orderRepo := newMemOrderRepo()

	accountID := uuid.New()
	points := &memLedger{balances: map[uuid.UUID]float64{accountID: 200}}

	binding := &ordersBinding{}
	paySvc := NewService(paymentRepo, gateway, binding, Config{
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
	})
	orderSvc := order.NewService(orderRepo, points, boardPrices{}, paySvc, nil, order.DefaultPolicy())
	binding.svc = orderSvc

	// 10 L at 100/L with 200 credits: total 1000, gateway charge 800
	o, err := orderSvc.Create(context.Background(), order.CreateParams{
		AccountID:      accountID,
		FuelType:       "petrol",
		Liters:         10,
		CreditsApplied: 200,
		PaymentMethod:  "upi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := paySvc.Checkout(context.Background(), o.ID, accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Amount != 800 {
		t.Fatalf("expected gateway charge 800, got %v", session.Amount)
	}

	sig := razorpay.SignPayment(session.GatewayOrderID, "pay_gw_cancel", testKeySecret)
	if _, err := paySvc.Confirm(context.Background(), accountID, session.GatewayOrderID, "pay_gw_cancel", sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := orderSvc.Cancel(context.Background(), o.ID, accountID, false, "changed my mind")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cancelled.PaymentStatus != order.PaymentRefunded {
		t.Fatalf("expected refunded payment status, got %s", cancelled.PaymentStatus)
	}
	if cancelled.RefundAmount != 1000 {
		t.Fatalf("expected gross refund of 1000 recorded, got %v", cancelled.RefundAmount)
	}
	if gateway.refunds != 1 {
		t.Fatalf("expected one gateway refund, got %d", gateway.refunds)
	}

	p, _ := paymentRepo.GetByGatewayPaymentID(context.Background(), "pay_gw_cancel")
	if p.Status != StatusRefunded || p.RefundAmount != 800 {
		t.Fatalf("expected the 800 charge fully refunded, got %s/%v", p.Status, p.RefundAmount)
	}
}
