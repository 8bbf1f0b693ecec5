package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/database"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/services"
)

type InitiatePaymentRequest struct {
	RequestID   uint    `json:"request_id" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	PaymentType string  `json:"payment_type" validate:"omitempty,oneof=full split"`
	CallbackURL string  `json:"callback_url"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
	PaymentID uint   `json:"paymentId" validate:"required"`
}

type CryptoGenerateRequest struct {
	RequestID   uint    `json:"request_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	PayCurrency string  `json:"pay_currency" validate:"required"`
	PaymentType string  `json:"payment_type" validate:"omitempty,oneof=full split"`
}

type CryptoVerifyRequest struct {
	PaymentID       uint   `json:"paymentId" validate:"required"`
	TransactionHash string `json:"transactionHash" validate:"required"`
}

// newPaymentRow creates a pending payment after the shared guards: the
// request must exist, carry an active payment link, and a split amount may
// not exceed the outstanding balance.
func newPaymentRow(requestID uint, amount float64, method models.PaymentMethod, paymentType models.PaymentType) (*models.Payment, *models.ServiceRequest, error) {
	var request models.ServiceRequest
	if err := database.DB.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, services.ErrRequestNotFound
		}
		return nil, nil, err
	}

	if !request.HasActiveLink(time.Now()) {
		return nil, nil, services.ErrLinkNotActive
	}
	if paymentType == models.PaymentTypeSplit && request.EstimatedCost != nil && amount > request.BalanceDue+services.AmountTolerance {
		return nil, nil, fmt.Errorf("%w: balance due is %.2f", services.ErrExceedsBalance, request.BalanceDue)
	}

	var seq int64
	if err := database.DB.Model(&models.Payment{}).Where("request_id = ?", requestID).Count(&seq).Error; err != nil {
		return nil, nil, err
	}

	totalDue := 0.0
	if request.EstimatedCost != nil {
		totalDue = *request.EstimatedCost
	}

	payment := models.Payment{
		RequestID:        requestID,
		PaymentSequence:  int(seq) + 1,
		Amount:           amount,
		Currency:         "USD",
		PaymentMethod:    method,
		PaymentType:      paymentType,
		IsPartialPayment: paymentType == models.PaymentTypeSplit,
		TotalAmountDue:   totalDue,
		PaymentStatus:    models.PaymentPending,
		Metadata:         map[string]interface{}{},
	}
	if err := database.DB.Create(&payment).Error; err != nil {
		return nil, nil, err
	}
	return &payment, &request, nil
}

// paystackReferenceMatches reports whether a provider-verified reference
// belongs to this payment row, either via the stored reference or the one
// stamped into metadata at initialization. A reference from someone else's
// charge must never confirm this row.
func paystackReferenceMatches(p *models.Payment, reference string) bool {
	if reference == "" {
		return false
	}
	if p.PaystackReference != "" && p.PaystackReference == reference {
		return true
	}
	if initRef, ok := p.Metadata["initialized_reference"].(string); ok && initRef == reference {
		return true
	}
	return false
}

func parsePaymentType(s string) models.PaymentType {
	if s == string(models.PaymentTypeSplit) {
		return models.PaymentTypeSplit
	}
	return models.PaymentTypeFull
}

// InitiatePaystackPayment creates a payment row and a Paystack checkout for it
func InitiatePaystackPayment(c *fiber.Ctx) error {
	req := new(InitiatePaymentRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	payment, _, err := newPaymentRow(req.RequestID, req.Amount, models.MethodPaystack, parsePaymentType(req.PaymentType))
	if err != nil {
		return businessError(c, err)
	}

	reference := fmt.Sprintf("KAMI-%s", uuid.NewString())
	result, err := paystackService.InitializePayment(req.Email, req.Amount, reference, req.CallbackURL)
	if err != nil {
		// Leave the row pending; the cleanup sweep reclaims it if the client
		// never retries.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to initialize payment",
			"details": err.Error(),
		})
	}

	payment.PaystackReference = result.Data.Reference
	payment.Metadata = map[string]interface{}{
		"access_code":           result.Data.AccessCode,
		"initialized_reference": reference,
	}
	if err := database.DB.Save(payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store payment reference"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment_id":        payment.ID,
		"reference":         result.Data.Reference,
		"authorization_url": result.Data.AuthorizationURL,
	})
}

// VerifyPaystackPayment verifies a reference with Paystack and reconciles the
// payment. Re-verifying an already-confirmed payment is a no-op success.
func VerifyPaystackPayment(c *fiber.Ctx) error {
	req := new(VerifyPaymentRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, req.PaymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if payment.PaymentStatus == models.PaymentConfirmed {
		return c.JSON(fiber.Map{"success": true, "status": payment.PaymentStatus, "payment": payment})
	}

	result, err := paystackService.VerifyPayment(req.Reference)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Verification failed",
			"details": err.Error(),
		})
	}

	if !paystackReferenceMatches(&payment, result.Data.Reference) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Reference does not belong to this payment",
		})
	}

	switch services.MapPaystackStatus(result.Data.Status) {
	case models.PaymentConfirmed:
		if err := reconciliation.VerifyReportedAmount(&payment, result.AmountInMajorUnits()); err != nil {
			return businessError(c, err)
		}
		database.DB.Model(&models.Payment{}).Where("id = ?", payment.ID).
			Update("paystack_reference", result.Data.Reference)
		confirmed, err := reconciliation.ConfirmPayment(payment.ID, "api_verification")
		if err != nil {
			return businessError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "status": confirmed.PaymentStatus, "payment": confirmed})
	case models.PaymentFailed:
		if err := reconciliation.FailPayment(payment.ID, result.Data.GatewayResponse); err != nil {
			return businessError(c, err)
		}
		return c.JSON(fiber.Map{"success": false, "status": models.PaymentFailed})
	default:
		// Still in flight at the provider; keep polling.
		return c.JSON(fiber.Map{"success": false, "status": payment.PaymentStatus})
	}
}

// CreateStripeCheckout creates a payment row and a hosted checkout session
func CreateStripeCheckout(c *fiber.Ctx) error {
	req := new(InitiatePaymentRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	payment, request, err := newPaymentRow(req.RequestID, req.Amount, models.MethodStripe, parsePaymentType(req.PaymentType))
	if err != nil {
		return businessError(c, err)
	}

	successURL := c.Query("success_url", req.CallbackURL)
	session, err := stripeService.CreateCheckoutSession(payment.ID, request.Title, req.Amount, "usd", successURL, req.CallbackURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to create checkout session",
			"details": err.Error(),
		})
	}

	payment.StripePaymentIntentID = session.PaymentIntent
	payment.Metadata = map[string]interface{}{"checkout_session_id": session.ID}
	if err := database.DB.Save(payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store checkout session"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment_id":   payment.ID,
		"checkout_url": session.URL,
	})
}

// GenerateCryptoPayment asks NOWPayments for a deposit address
func GenerateCryptoPayment(c *fiber.Ctx) error {
	req := new(CryptoGenerateRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	payment, request, err := newPaymentRow(req.RequestID, req.Amount, models.MethodCrypto, parsePaymentType(req.PaymentType))
	if err != nil {
		return businessError(c, err)
	}

	orderID := fmt.Sprintf("KAMI-CRYPTO-%d-%s", payment.ID, uuid.NewString()[:8])
	result, err := nowPaymentsService.CreatePayment(req.Amount, "usd", req.PayCurrency, orderID, request.Title)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to create crypto payment",
			"details": err.Error(),
		})
	}

	payment.CryptoAddress = result.PayAddress
	payment.CryptoNetwork = result.Network
	payment.CryptoSymbol = result.PayCurrency
	payment.CryptoAmount = result.PayAmount
	payment.Metadata = map[string]interface{}{
		"nowpayments_payment_id": result.PaymentID.String(),
		"order_id":               orderID,
	}
	if err := database.DB.Save(payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store crypto payment details"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment_id":  payment.ID,
		"pay_address": result.PayAddress,
		"pay_amount":  result.PayAmount,
		"pay_currency": result.PayCurrency,
		"order_id":    orderID,
	})
}

// ListCryptoCurrencies lists supported pay currencies
func ListCryptoCurrencies(c *fiber.Ctx) error {
	currencies, err := nowPaymentsService.GetCurrencies()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load currencies"})
	}
	return c.JSON(fiber.Map{"currencies": currencies})
}

// VerifyCryptoTransaction checks a TRC20 transaction hash on chain and feeds
// the result into the reconciliation service.
func VerifyCryptoTransaction(c *fiber.Ctx) error {
	req := new(CryptoVerifyRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, req.PaymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if payment.PaymentStatus == models.PaymentConfirmed {
		return c.JSON(fiber.Map{"success": true, "status": payment.PaymentStatus, "payment": payment})
	}
	if payment.CryptoAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment has no deposit address to verify against"})
	}

	transfer, err := tronService.GetTransfer(req.TransactionHash, payment.CryptoAddress)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Transaction could not be verified",
			"details": err.Error(),
		})
	}
	if !transfer.Success {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Transaction did not succeed on chain"})
	}

	updated, err := reconciliation.SubmitCryptoTransaction(payment.ID, transfer.Hash, payment.CryptoAddress,
		payment.CryptoNetwork, transfer.Symbol, transfer.Amount, transfer.Confirmations)
	if err != nil {
		return businessError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       updated.PaymentStatus == models.PaymentConfirmed,
		"status":        updated.PaymentStatus,
		"confirmations": transfer.Confirmations,
		"payment":       updated,
	})
}

// GetCryptoVerificationStatus is the read-only companion to the POST verify
func GetCryptoVerificationStatus(c *fiber.Ctx) error {
	paymentID, err := strconv.Atoi(c.Query("paymentId"))
	if err != nil || paymentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "paymentId query parameter required"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{
		"status":                  payment.PaymentStatus,
		"crypto_transaction_hash": payment.CryptoTransactionHash,
		"crypto_address":          payment.CryptoAddress,
		"confirmed_at":            payment.ConfirmedAt,
	})
}
