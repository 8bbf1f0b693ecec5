package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

type PaystackService struct {
	SecretKey string
	BaseURL   string
	Client    *http.Client
}

// Paystack API Response structures
type PaystackResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type InitializePaymentResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type VerifyPaymentResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID              int64  `json:"id"`
		Domain          string `json:"domain"`
		Status          string `json:"status"`
		Reference       string `json:"reference"`
		Amount          int    `json:"amount"` // Amount in kobo (₦1 = 100 kobo)
		Message         string `json:"message"`
		GatewayResponse string `json:"gateway_response"`
		PaidAt          string `json:"paid_at"`
		CreatedAt       string `json:"created_at"`
		Channel         string `json:"channel"`
		Currency        string `json:"currency"`
		IPAddress       string `json:"ip_address"`
		Customer        struct {
			ID           int64  `json:"id"`
			FirstName    string `json:"first_name"`
			LastName     string `json:"last_name"`
			Email        string `json:"email"`
			CustomerCode string `json:"customer_code"`
			Phone        string `json:"phone"`
		} `json:"customer"`
	} `json:"data"`
}

// NewPaystackService creates a new Paystack service instance
func NewPaystackService() *PaystackService {
	return &PaystackService{
		SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		BaseURL:   "https://api.paystack.co",
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// makeRequest makes HTTP request to Paystack API
func (ps *PaystackService) makeRequest(method, endpoint string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, ps.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+ps.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	return ps.Client.Do(req)
}

// InitializePayment initializes a payment transaction
func (ps *PaystackService) InitializePayment(email string, amount float64, reference string, callbackURL string) (*InitializePaymentResponse, error) {
	// Paystack wants the amount in the currency's minor unit
	amountInKobo := int(amount * 100)

	payload := map[string]interface{}{
		"email":        email,
		"amount":       amountInKobo,
		"reference":    reference,
		"callback_url": callbackURL,
		"currency":     "NGN",
		"metadata": map[string]string{
			"custom_fields": "Kamisoft service payment",
		},
	}

	resp, err := ps.makeRequest("POST", "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result InitializePaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Status {
		return nil, fmt.Errorf("paystack error: %s", result.Message)
	}

	return &result, nil
}

// VerifyPayment verifies a payment transaction
func (ps *PaystackService) VerifyPayment(reference string) (*VerifyPaymentResponse, error) {
	resp, err := ps.makeRequest("GET", "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result VerifyPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Status {
		return nil, fmt.Errorf("paystack error: %s", result.Message)
	}

	return &result, nil
}

// AmountInMajorUnits converts the minor-unit amount of a verify response.
func (vr *VerifyPaymentResponse) AmountInMajorUnits() float64 {
	return float64(vr.Data.Amount) / 100
}

// MapPaystackStatus translates Paystack's verify status vocabulary onto the
// payment state machine. Anything neither success nor failed stays pending so
// the caller keeps polling.
func MapPaystackStatus(status string) models.PaymentStatus {
	switch status {
	case "success":
		return models.PaymentConfirmed
	case "failed":
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}
