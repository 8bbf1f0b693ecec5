package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

// StripeWebhookTolerance bounds how stale a signed webhook timestamp may be.
const StripeWebhookTolerance = 5 * time.Minute

type StripeService struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Client        *http.Client
}

type StripeCheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type StripePaymentIntent struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	Amount         int64             `json:"amount"`
	AmountReceived int64             `json:"amount_received"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

func NewStripeService() *StripeService {
	return &StripeService{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		BaseURL:       "https://api.stripe.com/v1",
		Client:        &http.Client{Timeout: 15 * time.Second},
	}
}

// makeRequest posts form-encoded params to the Stripe API.
func (ss *StripeService) makeRequest(method, endpoint string, params url.Values) (*http.Response, error) {
	var body *strings.Reader
	if params != nil {
		body = strings.NewReader(params.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequest(method, ss.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+ss.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return ss.Client.Do(req)
}

// CreateCheckoutSession creates a hosted checkout session for a payment,
// carrying the payment id in metadata for webhook correlation.
func (ss *StripeService) CreateCheckoutSession(paymentID uint, description string, amount float64, currency, successURL, cancelURL string) (*StripeCheckoutSession, error) {
	params := url.Values{}
	params.Set("mode", "payment")
	params.Set("success_url", successURL)
	params.Set("cancel_url", cancelURL)
	params.Set("line_items[0][quantity]", "1")
	params.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	params.Set("line_items[0][price_data][product_data][name]", description)
	params.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(int64(amount*100), 10))
	params.Set("metadata[payment_id]", strconv.FormatUint(uint64(paymentID), 10))

	resp, err := ss.makeRequest("POST", "/checkout/sessions", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("stripe error: %s", apiErr.Error.Message)
	}

	var session StripeCheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &session, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header (t=...,v1=...)
// against the endpoint secret. Returns an error on any malformed, stale or
// mismatched signature.
func (ss *StripeService) VerifyWebhookSignature(payload []byte, header string) error {
	return verifyStripeSignature(payload, header, ss.WebhookSecret, time.Now())
}

func verifyStripeSignature(payload []byte, header, secret string, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("webhook secret not configured")
	}
	if header == "" {
		return fmt.Errorf("missing signature header")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid signature timestamp")
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > StripeWebhookTolerance || age < -StripeWebhookTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return fmt.Errorf("signature mismatch")
}

// MapStripeEventType translates webhook event types onto the payment state
// machine. Unknown events map to pending and are ignored by the caller.
func MapStripeEventType(eventType string) models.PaymentStatus {
	switch eventType {
	case "checkout.session.completed", "payment_intent.succeeded":
		return models.PaymentConfirmed
	case "payment_intent.payment_failed":
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}
