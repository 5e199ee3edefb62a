package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Publisher pushes a freshly stored notification to connected clients.
type Publisher interface {
	Publish(accountID uuid.UUID, n *Notification)
}

// Service handles notification logic
type Service struct {
	repo Repository
	pub  Publisher
}

// NewService creates notification service. pub may be nil when
// realtime delivery is disabled.
func NewService(repo Repository, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Create creates a notification
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, category Category, title, body string, data *NotificationData) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		AccountID: accountID,
		Category:  category,
		Title:     title,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	if body != "" {
		n.Body = sql.NullString{String: body, Valid: true}
	}
	n.SetData(data)

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.pub != nil {
		s.pub.Publish(accountID, n)
	}

	return n, nil
}

// Notify creates a notification and swallows failures. Business flows must
// never fail because a notification could not be written.
func (s *Service) Notify(ctx context.Context, accountID uuid.UUID, category Category, title, body string, data *NotificationData) {
	if _, err := s.Create(ctx, accountID, category, title, body, data); err != nil {
		log.Warn().
			Err(err).
			Str("account_id", accountID.String()).
			Str("category", string(category)).
			Msg("failed to create notification")
	}
}

// List returns notifications for an account
func (s *Service) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByAccount(ctx, accountID)
}

// MarkAsRead marks single notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, accountID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, accountID)
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, accountID)
}

// --- Helper methods for creating specific notifications ---

// NotifyPointsEarned tells a customer points landed after a fuel purchase
func (s *Service) NotifyPointsEarned(ctx context.Context, accountID uuid.UUID, points float64, transactionID uuid.UUID) {
	s.Notify(ctx, accountID, CategoryTransaction,
		"Points earned",
		"Your fuel purchase earned points",
		&NotificationData{TransactionID: &transactionID, Points: &points},
	)
}

// NotifyRedemptionStatus tells a customer their redemption request changed state
func (s *Service) NotifyRedemptionStatus(ctx context.Context, accountID uuid.UUID, status string, redemptionID uuid.UUID) {
	title := "Redemption " + status
	s.Notify(ctx, accountID, CategoryRedemption,
		title,
		"Your redemption request is now "+status,
		&NotificationData{RedemptionID: &redemptionID},
	)
}

// NotifyReferralBonus tells a referrer their bonus was credited
func (s *Service) NotifyReferralBonus(ctx context.Context, accountID uuid.UUID, points float64, referredName string) {
	s.Notify(ctx, accountID, CategoryReferral,
		"Referral bonus credited",
		referredName+" joined using your referral code",
		&NotificationData{Points: &points},
	)
}

// NotifyOrderStatus tells a customer their prepaid order changed state.
// Order IDs are human-readable codes, not UUIDs.
func (s *Service) NotifyOrderStatus(ctx context.Context, accountID uuid.UUID, status string, orderID string) {
	s.Notify(ctx, accountID, CategoryOrder,
		"Order "+status,
		"Your fuel order is now "+status,
		&NotificationData{OrderID: &orderID},
	)
}

// NotifyTicketUpdate tells an account about support ticket activity
func (s *Service) NotifyTicketUpdate(ctx context.Context, accountID uuid.UUID, title, body string, ticketID uuid.UUID) {
	s.Notify(ctx, accountID, CategorySystem,
		title,
		body,
		&NotificationData{TicketID: &ticketID},
	)
}
