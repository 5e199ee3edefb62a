package redemption

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notifier tells customers about decisions on their requests.
type Notifier interface {
	NotifyRedemptionStatus(ctx context.Context, accountID uuid.UUID, status string, redemptionID uuid.UUID)
}

// Service handles the redemption lifecycle.
type Service interface {
	Request(ctx context.Context, accountID uuid.UUID, points float64, redemptionType string) (*Redemption, error)
	Approve(ctx context.Context, id, adminID uuid.UUID) (*Redemption, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, reason string) error
	Apply(ctx context.Context, id, accountID, txID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*Redemption, error)
	Mine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Redemption, error)
	List(ctx context.Context, filters ListFilters) ([]Redemption, int, error)
	ApprovedCredits(ctx context.Context, accountID uuid.UUID) ([]Redemption, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	expiry   time.Duration
}

// NewService creates a redemption service. expiry is how long an approved
// credit stays usable. notifier may be nil.
func NewService(repo Repository, notifier Notifier, expiry time.Duration) Service {
	return &service{repo: repo, notifier: notifier, expiry: expiry}
}

// Request files a redemption. The balance is NOT checked here, only at
// approval time, so a request can sit pending while the customer keeps
// earning toward it.
func (s *service) Request(ctx context.Context, accountID uuid.UUID, points float64, redemptionType string) (*Redemption, error) {
	if points <= 0 {
		return nil, ErrInvalidPoints
	}
	if !IsValidType(redemptionType) {
		return nil, ErrInvalidType
	}

	red := &Redemption{
		ID:        uuid.New(),
		AccountID: accountID,
		Points:    points,
		Type:      Type(redemptionType),
		CashValue: points, // 1 point = 1 rupee of value
		Status:    StatusPending,
	}

	if err := s.repo.Create(ctx, red); err != nil {
		return nil, err
	}

	return red, nil
}

// Approve debits the customer's points and starts the expiry clock
func (s *service) Approve(ctx context.Context, id, adminID uuid.UUID) (*Redemption, error) {
	red, err := s.repo.Approve(ctx, id, adminID, s.expiry)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyRedemptionStatus(ctx, red.AccountID, string(StatusApproved), red.ID)
	}

	return red, nil
}

// Reject declines a pending request. Points were never debited so there is
// nothing to return.
func (s *service) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) error {
	if err := s.repo.Reject(ctx, id, adminID, reason); err != nil {
		return err
	}

	if s.notifier != nil {
		if red, err := s.repo.GetByID(ctx, id); err == nil && red != nil {
			s.notifier.NotifyRedemptionStatus(ctx, red.AccountID, string(StatusRejected), red.ID)
		}
	}

	return nil
}

// Apply consumes an approved credit against a fuel transaction
func (s *service) Apply(ctx context.Context, id, accountID, txID uuid.UUID) error {
	err := s.repo.MarkApplied(ctx, id, accountID, txID)
	if err == ErrExpired {
		// Lazy expiry: persist what the failed apply discovered
		_ = s.repo.MarkExpired(ctx, id)
	}
	return err
}

// Get returns one redemption, lazily expiring stale approved credits
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Redemption, error) {
	red, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if red == nil {
		return nil, ErrNotFound
	}

	if red.IsExpired(time.Now()) {
		_ = s.repo.MarkExpired(ctx, id)
		red.Status = StatusExpired
	}

	return red, nil
}

// Mine returns the account's own redemptions
func (s *service) Mine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Redemption, error) {
	redemptions, err := s.repo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	s.expireStale(ctx, redemptions)
	return redemptions, nil
}

// List returns redemptions for the admin panel
func (s *service) List(ctx context.Context, filters ListFilters) ([]Redemption, int, error) {
	redemptions, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	s.expireStale(ctx, redemptions)
	return redemptions, total, nil
}

// ApprovedCredits returns spendable credits oldest first
func (s *service) ApprovedCredits(ctx context.Context, accountID uuid.UUID) ([]Redemption, error) {
	return s.repo.ApprovedCreditsFor(ctx, accountID)
}

func (s *service) expireStale(ctx context.Context, redemptions []Redemption) {
	now := time.Now()
	for i := range redemptions {
		if redemptions[i].IsExpired(now) {
			_ = s.repo.MarkExpired(ctx, redemptions[i].ID)
			redemptions[i].Status = StatusExpired
		}
	}
}
