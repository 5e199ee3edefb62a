package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Config holds Razorpay API configuration
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Client represents a Razorpay payment gateway client
type Client struct {
	httpClient *http.Client
	config     Config
}

// Order represents a gateway order created ahead of checkout.
// Amounts are in the currency's minor unit (paise for INR).
type Order struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Refund represents a processed gateway refund
type Refund struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// NewClient creates a new Razorpay API client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com/v1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// ToMinorUnits converts a major-unit amount (rupees) to minor units (paise).
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder creates a gateway order for the given major-unit amount.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(receipt) == "" {
		return nil, fmt.Errorf("validation error: receipt must be non-empty")
	}
	if currency == "" {
		currency = "INR"
	}

	payload := map[string]interface{}{
		"amount":   ToMinorUnits(amount),
		"currency": currency,
		"receipt":  receipt,
	}

	var out Order
	if err := c.post(ctx, "/orders", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRefund refunds the given major-unit amount against a captured payment.
func (c *Client) CreateRefund(ctx context.Context, paymentID string, amount float64) (*Refund, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, fmt.Errorf("validation error: payment_id must be non-empty")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}

	payload := map[string]interface{}{
		"amount": ToMinorUnits(amount),
		"speed":  "optimum",
	}

	var out Refund
	if err := c.post(ctx, "/payments/"+paymentID+"/refund", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("razorpay client is not initialized")
	}
	if strings.TrimSpace(c.config.KeyID) == "" {
		return fmt.Errorf("razorpay config error: key_id is empty")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode razorpay request: %w", err)
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	url := base + path

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("razorpay api call failed: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.config.KeyID, c.config.KeySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("razorpay api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("razorpay api call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("razorpay api returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse razorpay response: %w", err)
	}

	return nil
}
