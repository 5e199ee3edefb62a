package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature validates the checkout callback signature.
// Razorpay signs "order_id|payment_id" with the key secret (HMAC-SHA256, hex).
func VerifyPaymentSignature(orderID, paymentID, signature, keySecret string) bool {
	if keySecret == "" || signature == "" {
		return false
	}

	h := hmac.New(sha256.New, []byte(keySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := h.Sum(nil)

	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(given, expected)
}

// VerifyWebhookSignature validates the X-Razorpay-Signature header
// against the raw webhook body.
func VerifyWebhookSignature(payload []byte, signature, webhookSecret string) bool {
	if webhookSecret == "" || signature == "" {
		return false
	}

	h := hmac.New(sha256.New, []byte(webhookSecret))
	h.Write(payload)
	expected := h.Sum(nil)

	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(given, expected)
}

// SignPayment creates a checkout signature, used in tests.
func SignPayment(orderID, paymentID, keySecret string) string {
	if keySecret == "" {
		return ""
	}

	h := hmac.New(sha256.New, []byte(keySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

// SignWebhook creates a webhook signature, used in tests.
func SignWebhook(payload []byte, webhookSecret string) string {
	if webhookSecret == "" {
		return ""
	}

	h := hmac.New(sha256.New, []byte(webhookSecret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
