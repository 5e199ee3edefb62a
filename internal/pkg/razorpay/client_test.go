package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "key_id" {
			t.Error("expected basic auth with key id")
		}

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["amount"].(float64) != 100000 {
			t.Errorf("expected amount in paise 100000, got %v", body["amount"])
		}

		json.NewEncoder(w).Encode(Order{
			ID:       "order_test123",
			Entity:   "order",
			Amount:   100000,
			Currency: "INR",
			Receipt:  "FS-TEST-0001",
			Status:   "created",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "key_id", KeySecret: "key_secret"})

	order, err := client.CreateOrder(context.Background(), 1000, "INR", "FS-TEST-0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "order_test123" {
		t.Fatalf("expected order_test123, got %s", order.ID)
	}
	if order.Status != "created" {
		t.Fatalf("expected created status, got %s", order.Status)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	client := NewClient(Config{KeyID: "key_id", KeySecret: "key_secret"})

	if _, err := client.CreateOrder(context.Background(), 0, "INR", "rcpt"); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := client.CreateOrder(context.Background(), 100, "INR", ""); err == nil {
		t.Fatal("expected error for empty receipt")
	}
}

func TestCreateRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/pay_abc/refund" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Refund{
			ID:        "rfnd_test456",
			Entity:    "refund",
			Amount:    50000,
			PaymentID: "pay_abc",
			Status:    "processed",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "key_id", KeySecret: "key_secret"})

	refund, err := client.CreateRefund(context.Background(), "pay_abc", 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refund.ID != "rfnd_test456" {
		t.Fatalf("expected rfnd_test456, got %s", refund.ID)
	}
}

func TestCreateRefundGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"payment not captured"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "key_id", KeySecret: "key_secret"})

	if _, err := client.CreateRefund(context.Background(), "pay_abc", 500); err == nil {
		t.Fatal("expected error on non-2xx gateway response")
	}
}
