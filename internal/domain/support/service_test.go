package support

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeSupportRepo struct {
	tickets map[uuid.UUID]*Ticket
	replies map[uuid.UUID][]Reply
}

func newFakeSupportRepo() *fakeSupportRepo {
	return &fakeSupportRepo{
		tickets: make(map[uuid.UUID]*Ticket),
		replies: make(map[uuid.UUID][]Reply),
	}
}

func (f *fakeSupportRepo) CreateTicket(ctx context.Context, t *Ticket) error {
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	f.tickets[t.ID] = &cp
	return nil
}

func (f *fakeSupportRepo) GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	if t, ok := f.tickets[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSupportRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Ticket, error) {
	out := make([]Ticket, 0)
	for _, t := range f.tickets {
		if t.AccountID == accountID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeSupportRepo) List(ctx context.Context, filters ListFilters) ([]Ticket, int, error) {
	out := make([]Ticket, 0)
	for _, t := range f.tickets {
		if filters.Status != nil && t.Status != *filters.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (f *fakeSupportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	t, ok := f.tickets[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeSupportRepo) AddReply(ctx context.Context, reply *Reply) error {
	reply.CreatedAt = time.Now()
	f.replies[reply.TicketID] = append(f.replies[reply.TicketID], *reply)
	return nil
}

func (f *fakeSupportRepo) ListReplies(ctx context.Context, ticketID uuid.UUID) ([]Reply, error) {
	return f.replies[ticketID], nil
}

type fakeAdmins struct {
	ids []uuid.UUID
}

func (f *fakeAdmins) AdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	return f.ids, nil
}

type ticketNotifier struct {
	recipients []uuid.UUID
	titles     []string
}

func (n *ticketNotifier) NotifyTicketUpdate(ctx context.Context, accountID uuid.UUID, title, body string, ticketID uuid.UUID) {
	n.recipients = append(n.recipients, accountID)
	n.titles = append(n.titles, title)
}

func TestCreateTicketNotifiesAdmins(t *testing.T) {
	repo := newFakeSupportRepo()
	admins := &fakeAdmins{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	notifier := &ticketNotifier{}
	svc := NewService(repo, admins, notifier)

	accountID := uuid.New()
	ticket, err := svc.Create(context.Background(), accountID, "Pump rejected my QR", "Scanned twice, nothing happened", "high")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Status != StatusOpen {
		t.Fatalf("expected open, got %s", ticket.Status)
	}

	if len(notifier.recipients) != 2 {
		t.Fatalf("expected both admins notified, got %d", len(notifier.recipients))
	}
	if notifier.titles[0] != "New support ticket" {
		t.Fatalf("unexpected title %q", notifier.titles[0])
	}
}

func TestCreateTicketInvalidPriority(t *testing.T) {
	svc := NewService(newFakeSupportRepo(), nil, nil)

	_, err := svc.Create(context.Background(), uuid.New(), "Subject", "Message body here", "urgent")
	if !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestStaffReplyMovesTicketInProgress(t *testing.T) {
	repo := newFakeSupportRepo()
	notifier := &ticketNotifier{}
	svc := NewService(repo, &fakeAdmins{}, notifier)

	customerID := uuid.New()
	ticket, _ := svc.Create(context.Background(), customerID, "Missing points", "Points never landed after fueling", "medium")

	adminID := uuid.New()
	if _, err := svc.Reply(context.Background(), ticket.ID, adminID, true, "Looking into it"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.tickets[ticket.ID].Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", repo.tickets[ticket.ID].Status)
	}

	// The customer hears about the staff reply
	found := false
	for _, recipient := range notifier.recipients {
		if recipient == customerID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected customer notified of staff reply")
	}
}

func TestReplyOnClosedTicket(t *testing.T) {
	repo := newFakeSupportRepo()
	svc := NewService(repo, nil, nil)

	customerID := uuid.New()
	ticket, _ := svc.Create(context.Background(), customerID, "Old issue", "Already sorted out actually", "low")
	repo.tickets[ticket.ID].Status = StatusClosed

	_, err := svc.Reply(context.Background(), ticket.ID, customerID, false, "One more thing")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCustomerCannotReadOthersTicket(t *testing.T) {
	repo := newFakeSupportRepo()
	svc := NewService(repo, nil, nil)

	owner := uuid.New()
	ticket, _ := svc.Create(context.Background(), owner, "Billing question", "Charged twice for one order", "medium")

	if _, err := svc.Get(context.Background(), ticket.ID, uuid.New(), false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stranger, got %v", err)
	}

	// Admins see everything
	thread, err := svc.Get(context.Background(), ticket.ID, uuid.New(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if thread.Ticket.ID != ticket.ID {
		t.Fatal("expected the ticket back")
	}
}

func TestUpdateStatusNotifiesCustomer(t *testing.T) {
	repo := newFakeSupportRepo()
	notifier := &ticketNotifier{}
	svc := NewService(repo, &fakeAdmins{}, notifier)

	customerID := uuid.New()
	ticket, _ := svc.Create(context.Background(), customerID, "Refund delay", "Refund not arrived after five days", "high")

	updated, err := svc.UpdateStatus(context.Background(), ticket.ID, "resolved")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusResolved {
		t.Fatalf("expected resolved, got %s", updated.Status)
	}

	last := notifier.recipients[len(notifier.recipients)-1]
	if last != customerID {
		t.Fatal("expected customer notified of status change")
	}

	if _, err := svc.UpdateStatus(context.Background(), ticket.ID, "sideways"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
