package razorpay

import "testing"

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "test_secret"
	sig := SignPayment("order_abc", "pay_xyz", secret)

	if !VerifyPaymentSignature("order_abc", "pay_xyz", sig, secret) {
		t.Fatal("expected valid signature to verify")
	}

	if VerifyPaymentSignature("order_abc", "pay_other", sig, secret) {
		t.Fatal("expected signature for different payment to fail")
	}

	if VerifyPaymentSignature("order_abc", "pay_xyz", sig, "wrong_secret") {
		t.Fatal("expected wrong secret to fail")
	}

	if VerifyPaymentSignature("order_abc", "pay_xyz", "", secret) {
		t.Fatal("expected empty signature to fail")
	}

	if VerifyPaymentSignature("order_abc", "pay_xyz", "not-hex!", secret) {
		t.Fatal("expected malformed signature to fail")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "webhook_secret"
	payload := []byte(`{"event":"payment.captured"}`)
	sig := SignWebhook(payload, secret)

	if !VerifyWebhookSignature(payload, sig, secret) {
		t.Fatal("expected valid webhook signature to verify")
	}

	if VerifyWebhookSignature([]byte(`{"event":"tampered"}`), sig, secret) {
		t.Fatal("expected tampered payload to fail")
	}

	if VerifyWebhookSignature(payload, sig, "") {
		t.Fatal("expected empty secret to fail")
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{100, 10000},
		{99.99, 9999},
		{0.01, 1},
		{1234.565, 123457},
	}

	for _, c := range cases {
		if got := ToMinorUnits(c.amount); got != c.want {
			t.Errorf("ToMinorUnits(%v) = %d, want %d", c.amount, got, c.want)
		}
	}
}
