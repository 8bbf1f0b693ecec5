package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

type NOWPaymentsService struct {
	APIKey    string
	IPNSecret string
	BaseURL   string
	Client    *http.Client
}

type NOWPaymentResponse struct {
	PaymentID        json.Number `json:"payment_id"`
	PaymentStatus    string      `json:"payment_status"`
	PayAddress       string      `json:"pay_address"`
	PayAmount        float64     `json:"pay_amount"`
	PayCurrency      string      `json:"pay_currency"`
	PriceAmount      float64     `json:"price_amount"`
	PriceCurrency    string      `json:"price_currency"`
	OrderID          string      `json:"order_id"`
	OrderDescription string      `json:"order_description"`
	Network          string      `json:"network"`
}

type NOWCurrenciesResponse struct {
	Currencies []string `json:"currencies"`
}

// IPNPayload is the body of a NOWPayments instant payment notification.
type IPNPayload struct {
	PaymentID        json.Number `json:"payment_id"`
	PaymentStatus    string      `json:"payment_status"`
	PayAddress       string      `json:"pay_address"`
	PayAmount        float64     `json:"pay_amount"`
	ActuallyPaid     float64     `json:"actually_paid"`
	PayCurrency      string      `json:"pay_currency"`
	PriceAmount      float64     `json:"price_amount"`
	PriceCurrency    string      `json:"price_currency"`
	OrderID          string      `json:"order_id"`
	OrderDescription string      `json:"order_description"`
	OutcomeAmount    float64     `json:"outcome_amount"`
	OutcomeCurrency  string      `json:"outcome_currency"`
}

// fallbackCurrencies is served when the provider is unreachable.
var fallbackCurrencies = []string{
	"btc", "eth", "usdttrc20", "usdterc20", "usdc", "ltc", "bnbbsc", "sol", "xrp", "trx", "doge",
}

func NewNOWPaymentsService() *NOWPaymentsService {
	return &NOWPaymentsService{
		APIKey:    os.Getenv("NOWPAYMENTS_API_KEY"),
		IPNSecret: os.Getenv("NOWPAYMENTS_IPN_SECRET"),
		BaseURL:   "https://api.nowpayments.io/v1",
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (ns *NOWPaymentsService) makeRequest(method, endpoint string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, ns.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", ns.APIKey)
	req.Header.Set("Content-Type", "application/json")

	return ns.Client.Do(req)
}

// CreatePayment asks the provider for a deposit address for the given order.
func (ns *NOWPaymentsService) CreatePayment(amount float64, priceCurrency, payCurrency, orderID, description string) (*NOWPaymentResponse, error) {
	payload := map[string]interface{}{
		"price_amount":      amount,
		"price_currency":    priceCurrency,
		"pay_currency":      payCurrency,
		"order_id":          orderID,
		"order_description": description,
	}

	resp, err := ns.makeRequest("POST", "/payment", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nowpayments error: %s", string(raw))
	}

	var result NOWPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// GetCurrencies lists supported pay currencies, falling back to a static
// list when the provider is unreachable.
func (ns *NOWPaymentsService) GetCurrencies() ([]string, error) {
	resp, err := ns.makeRequest("GET", "/currencies", nil)
	if err != nil {
		return fallbackCurrencies, nil
	}
	defer resp.Body.Close()

	var result NOWCurrenciesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || len(result.Currencies) == 0 {
		return fallbackCurrencies, nil
	}
	return result.Currencies, nil
}

// VerifyIPNSignature checks x-nowpayments-sig: HMAC-SHA512 of the payload
// re-marshalled with sorted keys. An empty configured secret disables the
// check.
func (ns *NOWPaymentsService) VerifyIPNSignature(payload []byte, signature string) error {
	if ns.IPNSecret == "" {
		return nil
	}
	if signature == "" {
		return fmt.Errorf("missing ipn signature")
	}

	sorted, err := sortedJSON(payload)
	if err != nil {
		return fmt.Errorf("invalid ipn payload: %w", err)
	}

	mac := hmac.New(sha512.New, []byte(ns.IPNSecret))
	mac.Write(sorted)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("ipn signature mismatch")
	}
	return nil
}

// sortedJSON re-encodes a JSON object with lexicographically ordered keys,
// matching how NOWPayments computes its IPN signature.
func sortedJSON(payload []byte) ([]byte, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(m[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MapNOWPaymentsStatus translates IPN statuses onto the payment state
// machine. Unknown statuses stay pending.
func MapNOWPaymentsStatus(status string) models.PaymentStatus {
	switch status {
	case "waiting", "confirming", "partially_paid", "sending":
		return models.PaymentProcessing
	case "confirmed", "finished":
		return models.PaymentConfirmed
	case "failed", "refunded", "expired":
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}
