package order

import (
	"strings"
	"testing"
	"time"
)

func TestNewOrderID(t *testing.T) {
	id := NewOrderID()

	if !strings.HasPrefix(id, "FS-") {
		t.Fatalf("expected FS- prefix, got %s", id)
	}

	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %s", id)
	}
	if len(parts[2]) != 4 {
		t.Fatalf("expected 4 char random suffix, got %s", parts[2])
	}

	if id == NewOrderID() {
		t.Fatal("two generated IDs collided")
	}
}

func TestParseQR(t *testing.T) {
	if got := ParseQR(`{"id":"FS-ABC123-XY9Z"}`); got != "FS-ABC123-XY9Z" {
		t.Fatalf("expected order id from JSON payload, got %q", got)
	}

	// Older app versions encode the bare ID
	if got := ParseQR("FS-ABC123-XY9Z"); got != "FS-ABC123-XY9Z" {
		t.Fatalf("expected raw fallback, got %q", got)
	}

	if got := ParseQR(`  {"id":"FS-1"}  `); got != "FS-1" {
		t.Fatalf("expected trimmed JSON parse, got %q", got)
	}

	if got := ParseQR(`{"other":"x"}`); got != `{"other":"x"}` {
		t.Fatalf("expected raw fallback on missing id field, got %q", got)
	}
}

func TestOrderTransitions(t *testing.T) {
	now := time.Now()

	o := &Order{Status: StatusPending, PaymentStatus: PaymentPending, ExpiresAt: now.Add(time.Hour)}
	if o.CanComplete() {
		t.Fatal("unpaid order must not complete")
	}
	if !o.CanCancel() {
		t.Fatal("pending order must be cancellable")
	}

	o.PaymentStatus = PaymentPaid
	if !o.CanComplete() {
		t.Fatal("paid pending order must complete")
	}

	o.Status = StatusProcessing
	if !o.CanComplete() || !o.CanCancel() {
		t.Fatal("processing order must still complete and cancel")
	}

	o.Status = StatusCompleted
	if o.CanComplete() || o.CanCancel() {
		t.Fatal("completed order must be final")
	}

	stale := &Order{Status: StatusPending, ExpiresAt: now.Add(-time.Minute)}
	if !stale.IsExpired(now) {
		t.Fatal("pending order past expiry must report expired")
	}

	done := &Order{Status: StatusCompleted, ExpiresAt: now.Add(-time.Minute)}
	if done.IsExpired(now) {
		t.Fatal("completed order must not report expired")
	}
}
