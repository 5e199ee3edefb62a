package support

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AdminDirectory lists staff accounts for new-ticket fan-out.
// Satisfied by account.Service.
type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Notifier pushes ticket activity to accounts.
// Satisfied by notification.Service.
type Notifier interface {
	NotifyTicketUpdate(ctx context.Context, accountID uuid.UUID, title, body string, ticketID uuid.UUID)
}

// TicketThread is a ticket with its full reply thread
type TicketThread struct {
	Ticket  *Ticket `json:"ticket"`
	Replies []Reply `json:"replies"`
}

// Service handles the support ticket workflow.
type Service interface {
	Create(ctx context.Context, accountID uuid.UUID, subject, message, priority string) (*Ticket, error)
	Get(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*TicketThread, error)
	Mine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Ticket, error)
	List(ctx context.Context, filters ListFilters) ([]Ticket, int, error)

	Reply(ctx context.Context, ticketID, authorID uuid.UUID, isStaff bool, message string) (*Reply, error)
	UpdateStatus(ctx context.Context, ticketID uuid.UUID, status string) (*Ticket, error)
}

type service struct {
	repo     Repository
	admins   AdminDirectory
	notifier Notifier
}

// NewService creates a support service. admins and notifier may be nil.
func NewService(repo Repository, admins AdminDirectory, notifier Notifier) Service {
	return &service{repo: repo, admins: admins, notifier: notifier}
}

// Create files a new ticket and tells the staff
func (s *service) Create(ctx context.Context, accountID uuid.UUID, subject, message, priority string) (*Ticket, error) {
	if !IsValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	t := &Ticket{
		ID:        uuid.New(),
		AccountID: accountID,
		Subject:   subject,
		Message:   message,
		Priority:  Priority(priority),
		Status:    StatusOpen,
	}

	if err := s.repo.CreateTicket(ctx, t); err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, t, "New support ticket", t.Subject)

	return t, nil
}

// Get returns the ticket and its thread. Customers only see their own.
func (s *service) Get(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*TicketThread, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if !isAdmin && t.AccountID != requesterID {
		return nil, ErrNotFound
	}

	replies, err := s.repo.ListReplies(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TicketThread{Ticket: t, Replies: replies}, nil
}

func (s *service) Mine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Ticket, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]Ticket, int, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	return s.repo.List(ctx, filters)
}

// Reply appends a message to the thread. The first staff reply moves an
// open ticket to in_progress.
func (s *service) Reply(ctx context.Context, ticketID, authorID uuid.UUID, isStaff bool, message string) (*Reply, error) {
	t, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if !isStaff && t.AccountID != authorID {
		return nil, ErrNotFound
	}
	if t.Status == StatusClosed {
		return nil, ErrClosed
	}

	reply := &Reply{
		ID:       uuid.New(),
		TicketID: ticketID,
		AuthorID: authorID,
		IsStaff:  isStaff,
		Message:  message,
	}
	if err := s.repo.AddReply(ctx, reply); err != nil {
		return nil, err
	}

	if isStaff {
		if t.Status == StatusOpen {
			if err := s.repo.UpdateStatus(ctx, ticketID, StatusInProgress); err != nil {
				log.Warn().Err(err).Str("ticket_id", ticketID.String()).Msg("failed to move ticket to in_progress")
			}
		}
		if s.notifier != nil {
			s.notifier.NotifyTicketUpdate(ctx, t.AccountID, "Support replied", t.Subject, t.ID)
		}
	} else {
		s.notifyAdmins(ctx, t, "Ticket updated", t.Subject)
	}

	return reply, nil
}

// UpdateStatus is the admin lever for resolving and closing tickets
func (s *service) UpdateStatus(ctx context.Context, ticketID uuid.UUID, status string) (*Ticket, error) {
	if !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	t, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}

	if err := s.repo.UpdateStatus(ctx, ticketID, Status(status)); err != nil {
		return nil, err
	}
	t.Status = Status(status)

	if s.notifier != nil {
		s.notifier.NotifyTicketUpdate(ctx, t.AccountID, "Ticket "+status, t.Subject, t.ID)
	}

	return t, nil
}

func (s *service) notifyAdmins(ctx context.Context, t *Ticket, title, body string) {
	if s.admins == nil || s.notifier == nil {
		return
	}

	adminIDs, err := s.admins.AdminIDs(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list admins for ticket notification")
		return
	}

	for _, adminID := range adminIDs {
		s.notifier.NotifyTicketUpdate(ctx, adminID, title, body, t.ID)
	}
}
