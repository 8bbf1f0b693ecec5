package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/database"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/services"
)

// StripeWebhook handles signed Stripe events. Redelivery of an event for an
// already-confirmed payment is acknowledged without changes.
func StripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	if err := stripeService.VerifyWebhookSignature(payload, c.Get("Stripe-Signature")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	var event services.StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Malformed event"})
	}

	outcome := services.MapStripeEventType(event.Type)
	if outcome == models.PaymentPending {
		// Event types we don't act on are acknowledged so Stripe stops
		// retrying them.
		return c.JSON(fiber.Map{"received": true})
	}

	payment, err := resolveStripePayment(event)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found for event"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if payment.PaymentStatus == models.PaymentConfirmed {
		return c.JSON(fiber.Map{"received": true, "status": payment.PaymentStatus})
	}

	switch outcome {
	case models.PaymentConfirmed:
		if _, err := reconciliation.ConfirmPayment(payment.ID, "stripe_webhook"); err != nil {
			return businessError(c, err)
		}
	case models.PaymentFailed:
		reason := stripeFailureReason(event)
		if err := reconciliation.FailPayment(payment.ID, reason); err != nil {
			return businessError(c, err)
		}
	}

	return c.JSON(fiber.Map{"received": true})
}

// resolveStripePayment finds the payment an event refers to, via the
// payment_id metadata stamped at checkout creation or the intent id.
func resolveStripePayment(event services.StripeEvent) (*models.Payment, error) {
	var obj struct {
		ID            string            `json:"id"`
		PaymentIntent string            `json:"payment_intent"`
		Metadata      map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return nil, err
	}

	var payment models.Payment
	if idStr, ok := obj.Metadata["payment_id"]; ok {
		if id, err := strconv.Atoi(idStr); err == nil {
			if err := database.DB.First(&payment, id).Error; err == nil {
				return &payment, nil
			}
		}
	}

	intentID := obj.PaymentIntent
	if intentID == "" && strings.HasPrefix(obj.ID, "pi_") {
		intentID = obj.ID
	}
	if intentID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if err := database.DB.Where("stripe_payment_intent_id = ?", intentID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func stripeFailureReason(event services.StripeEvent) string {
	var intent services.StripePaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err == nil &&
		intent.LastPaymentError != nil && intent.LastPaymentError.Message != "" {
		return intent.LastPaymentError.Message
	}
	return "payment failed at provider"
}

// NOWPaymentsWebhook handles IPN callbacks. The signature header is checked
// only when an IPN secret is configured.
func NOWPaymentsWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	if err := nowPaymentsService.VerifyIPNSignature(payload, c.Get("x-nowpayments-sig")); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid IPN signature"})
	}

	var ipn services.IPNPayload
	if err := json.Unmarshal(payload, &ipn); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Malformed IPN payload"})
	}

	paymentID, ok := parseCryptoOrderID(ipn.OrderID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unrecognized order id"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if payment.PaymentStatus == models.PaymentConfirmed {
		return c.JSON(fiber.Map{"received": true, "status": payment.PaymentStatus})
	}

	switch services.MapNOWPaymentsStatus(ipn.PaymentStatus) {
	case models.PaymentConfirmed:
		if err := reconciliation.VerifyReportedAmount(&payment, ipn.PriceAmount); err != nil {
			return businessError(c, err)
		}
		if _, err := reconciliation.ConfirmPayment(payment.ID, "nowpayments_webhook"); err != nil {
			return businessError(c, err)
		}
	case models.PaymentFailed:
		if err := reconciliation.FailPayment(payment.ID, "provider reported "+ipn.PaymentStatus); err != nil {
			return businessError(c, err)
		}
	case models.PaymentProcessing:
		if err := reconciliation.MarkProcessing(payment.ID, "Provider status: "+ipn.PaymentStatus); err != nil {
			return businessError(c, err)
		}
	}

	return c.JSON(fiber.Map{"received": true})
}

// parseCryptoOrderID recovers the payment id from a KAMI-CRYPTO-<id>-<rand>
// order reference.
func parseCryptoOrderID(orderID string) (uint, bool) {
	parts := strings.Split(orderID, "-")
	if len(parts) < 4 || parts[0] != "KAMI" || parts[1] != "CRYPTO" {
		return 0, false
	}
	id, err := strconv.Atoi(parts[2])
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
