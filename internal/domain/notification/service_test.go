package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeNotifRepo struct {
	stored    []*Notification
	createErr error
}

func (f *fakeNotifRepo) Create(ctx context.Context, n *Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.stored = append(f.stored, n)
	return nil
}

func (f *fakeNotifRepo) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	for _, n := range f.stored {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

func (f *fakeNotifRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, error) {
	out := make([]*Notification, 0)
	for _, n := range f.stored {
		if n.AccountID == accountID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifRepo) CountUnreadByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	count := 0
	for _, n := range f.stored {
		if n.AccountID == accountID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifRepo) MarkAsRead(ctx context.Context, id, accountID uuid.UUID) error {
	for _, n := range f.stored {
		if n.ID == id && n.AccountID == accountID {
			n.IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeNotifRepo) MarkAllAsRead(ctx context.Context, accountID uuid.UUID) error {
	for _, n := range f.stored {
		if n.AccountID == accountID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, nil
}

type capturePublisher struct {
	published []*Notification
}

func (c *capturePublisher) Publish(accountID uuid.UUID, n *Notification) {
	c.published = append(c.published, n)
}

func TestCreatePublishesToHub(t *testing.T) {
	repo := &fakeNotifRepo{}
	pub := &capturePublisher{}
	svc := NewService(repo, pub)

	accountID := uuid.New()
	n, err := svc.Create(context.Background(), accountID, CategoryOrder, "Order completed", "Your fuel order is now completed", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.stored) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(repo.stored))
	}
	if len(pub.published) != 1 || pub.published[0].ID != n.ID {
		t.Fatal("expected notification published to hub")
	}
}

func TestNotifySwallowsRepoFailure(t *testing.T) {
	repo := &fakeNotifRepo{createErr: errors.New("db down")}
	svc := NewService(repo, nil)

	// Must not panic or propagate
	svc.Notify(context.Background(), uuid.New(), CategorySystem, "t", "b", nil)
}

func TestMarkAsReadScopedToOwner(t *testing.T) {
	repo := &fakeNotifRepo{}
	svc := NewService(repo, nil)

	owner := uuid.New()
	n, err := svc.Create(context.Background(), owner, CategoryReferral, "Referral bonus credited", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.MarkAsRead(context.Background(), n.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other account, got %v", err)
	}

	if err := svc.MarkAsRead(context.Background(), n.ID, owner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := svc.GetUnreadCount(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}
