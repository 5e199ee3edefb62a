package redemption

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/domain/ledger"
)

type fakeRedemptionRepo struct {
	redemptions map[uuid.UUID]*Redemption
	balances    map[uuid.UUID]float64
}

func newFakeRedemptionRepo() *fakeRedemptionRepo {
	return &fakeRedemptionRepo{
		redemptions: make(map[uuid.UUID]*Redemption),
		balances:    make(map[uuid.UUID]float64),
	}
}

func (f *fakeRedemptionRepo) Create(ctx context.Context, r *Redemption) error {
	cp := *r
	f.redemptions[r.ID] = &cp
	return nil
}

func (f *fakeRedemptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Redemption, error) {
	if r, ok := f.redemptions[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRedemptionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Redemption, error) {
	out := make([]Redemption, 0)
	for _, r := range f.redemptions {
		if r.AccountID == accountID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRedemptionRepo) List(ctx context.Context, filters ListFilters) ([]Redemption, int, error) {
	out := make([]Redemption, 0)
	for _, r := range f.redemptions {
		if filters.Status != nil && r.Status != *filters.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeRedemptionRepo) Approve(ctx context.Context, id, adminID uuid.UUID, expiry time.Duration) (*Redemption, error) {
	r, ok := f.redemptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != StatusPending {
		return nil, ErrConflict
	}
	if f.balances[r.AccountID] < r.Points {
		return nil, ledger.ErrInsufficientBalance
	}
	f.balances[r.AccountID] -= r.Points
	r.Status = StatusApproved
	r.DecidedBy = uuid.NullUUID{UUID: adminID, Valid: true}
	r.DecidedAt = sql.NullTime{Time: time.Now(), Valid: true}
	r.ExpiresAt = sql.NullTime{Time: time.Now().Add(expiry), Valid: true}
	cp := *r
	return &cp, nil
}

func (f *fakeRedemptionRepo) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) error {
	r, ok := f.redemptions[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != StatusPending {
		return ErrConflict
	}
	r.Status = StatusRejected
	return nil
}

func (f *fakeRedemptionRepo) MarkApplied(ctx context.Context, id, accountID, txID uuid.UUID) error {
	r, ok := f.redemptions[id]
	if !ok {
		return ErrNotFound
	}
	if r.AccountID != accountID {
		return ErrNotOwner
	}
	if r.IsExpired(time.Now()) {
		return ErrExpired
	}
	if r.Status != StatusApproved {
		return ErrConflict
	}
	r.Status = StatusApplied
	r.AppliedTxID = uuid.NullUUID{UUID: txID, Valid: true}
	return nil
}

func (f *fakeRedemptionRepo) MarkExpired(ctx context.Context, id uuid.UUID) error {
	if r, ok := f.redemptions[id]; ok && r.Status == StatusApproved {
		r.Status = StatusExpired
	}
	return nil
}

func (f *fakeRedemptionRepo) ApprovedCreditsFor(ctx context.Context, accountID uuid.UUID) ([]Redemption, error) {
	out := make([]Redemption, 0)
	now := time.Now()
	for _, r := range f.redemptions {
		if r.AccountID == accountID && r.Status == StatusApproved && !r.IsExpired(now) {
			out = append(out, *r)
		}
	}
	// Oldest first by creation time, matching the SQL ORDER BY
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type statusNotifier struct {
	statuses []string
}

func (n *statusNotifier) NotifyRedemptionStatus(ctx context.Context, accountID uuid.UUID, status string, redemptionID uuid.UUID) {
	n.statuses = append(n.statuses, status)
}

func TestRedemptionRoundTrip(t *testing.T) {
	repo := newFakeRedemptionRepo()
	notifier := &statusNotifier{}
	svc := NewService(repo, notifier, 30*24*time.Hour)

	accountID := uuid.New()
	adminID := uuid.New()
	repo.balances[accountID] = 150

	red, err := svc.Request(context.Background(), accountID, 100, "cashback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if red.Status != StatusPending {
		t.Fatalf("expected pending, got %s", red.Status)
	}
	if red.CashValue != 100 {
		t.Fatalf("expected 1:1 cash value 100, got %v", red.CashValue)
	}

	approved, err := svc.Approve(context.Background(), red.ID, adminID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if repo.balances[accountID] != 50 {
		t.Fatalf("expected balance debited to 50, got %v", repo.balances[accountID])
	}

	// Approving twice conflicts, the debit happened exactly once
	if _, err := svc.Approve(context.Background(), red.ID, adminID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second approve, got %v", err)
	}
	if repo.balances[accountID] != 50 {
		t.Fatalf("expected balance unchanged at 50, got %v", repo.balances[accountID])
	}

	txID := uuid.New()
	if err := svc.Apply(context.Background(), red.ID, accountID, txID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A credit is single use
	if err := svc.Apply(context.Background(), red.ID, accountID, uuid.New()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second apply, got %v", err)
	}

	if len(notifier.statuses) != 1 || notifier.statuses[0] != "approved" {
		t.Fatalf("expected one approved notification, got %v", notifier.statuses)
	}
}

func TestApproveInsufficientBalance(t *testing.T) {
	repo := newFakeRedemptionRepo()
	svc := NewService(repo, nil, 30*24*time.Hour)

	accountID := uuid.New()
	repo.balances[accountID] = 50

	red, err := svc.Request(context.Background(), accountID, 100, "cashback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Approve(context.Background(), red.ID, uuid.New()); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestApplyExpiredCredit(t *testing.T) {
	repo := newFakeRedemptionRepo()
	svc := NewService(repo, nil, 30*24*time.Hour)

	accountID := uuid.New()
	repo.balances[accountID] = 200

	red, err := svc.Request(context.Background(), accountID, 100, "fuel-credit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Approve(context.Background(), red.ID, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Push the expiry into the past
	repo.redemptions[red.ID].ExpiresAt = sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true}

	if err := svc.Apply(context.Background(), red.ID, accountID, uuid.New()); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	// Lazy expiry persisted the status flip
	got, err := svc.Get(context.Background(), red.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusExpired {
		t.Fatalf("expected expired status, got %s", got.Status)
	}
}

func TestApplyOtherAccountsCredit(t *testing.T) {
	repo := newFakeRedemptionRepo()
	svc := NewService(repo, nil, 30*24*time.Hour)

	owner := uuid.New()
	repo.balances[owner] = 200

	red, _ := svc.Request(context.Background(), owner, 100, "cashback")
	svc.Approve(context.Background(), red.ID, uuid.New())

	if err := svc.Apply(context.Background(), red.ID, uuid.New(), uuid.New()); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestRejectAfterDecisionConflicts(t *testing.T) {
	repo := newFakeRedemptionRepo()
	svc := NewService(repo, nil, 30*24*time.Hour)

	accountID := uuid.New()
	red, _ := svc.Request(context.Background(), accountID, 50, "discount")

	if err := svc.Reject(context.Background(), red.ID, uuid.New(), "not eligible"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Reject(context.Background(), red.ID, uuid.New(), "again"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestApprovedCreditsOldestFirst(t *testing.T) {
	repo := newFakeRedemptionRepo()
	svc := NewService(repo, nil, 30*24*time.Hour)

	accountID := uuid.New()
	now := time.Now()
	future := sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true}

	// Seeded out of order on purpose
	for _, age := range []time.Duration{time.Hour, 3 * time.Hour, 2 * time.Hour} {
		id := uuid.New()
		repo.redemptions[id] = &Redemption{
			ID:        id,
			AccountID: accountID,
			Points:    float64(age / time.Hour),
			Status:    StatusApproved,
			ExpiresAt: future,
			CreatedAt: now.Add(-age),
		}
	}

	credits, err := svc.ApprovedCredits(context.Background(), accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(credits) != 3 {
		t.Fatalf("expected 3 credits, got %d", len(credits))
	}

	// Spend order is creation order, the oldest request goes first
	for i := 1; i < len(credits); i++ {
		if credits[i].CreatedAt.Before(credits[i-1].CreatedAt) {
			t.Fatalf("credits not oldest first: %v, %v, %v",
				credits[0].Points, credits[1].Points, credits[2].Points)
		}
	}
}
