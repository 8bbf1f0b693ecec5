package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/database"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/services"
)

type ManualPaymentRequest struct {
	RequestID     uint    `json:"request_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Currency      string  `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=bank_transfer cash cheque other"`
	PaymentType   string  `json:"payment_type" validate:"omitempty,oneof=full split"`
	Reference     string  `json:"reference"`
	Notes         string  `json:"notes"`
	AdminVerified bool    `json:"admin_verified"`
}

type DeactivateLinkRequest struct {
	Reason string `json:"reason"`
}

func adminEmail(c *fiber.Ctx) string {
	email, _ := c.Locals("email").(string)
	if email == "" {
		email = "admin"
	}
	return email
}

func paymentIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, err
	}
	return uint(id), nil
}

// RecordManualPayment records an offline payment (bank transfer, cash,
// cheque) entered by an admin.
func RecordManualPayment(c *fiber.Ctx) error {
	req := new(ManualPaymentRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	payment, err := reconciliation.RecordManualPayment(services.ManualPaymentInput{
		RequestID:     req.RequestID,
		Amount:        req.Amount,
		Currency:      currency,
		Method:        models.PaymentMethod(req.PaymentMethod),
		PaymentType:   parsePaymentType(req.PaymentType),
		Reference:     req.Reference,
		Notes:         req.Notes,
		AdminVerified: req.AdminVerified,
		AdminEmail:    adminEmail(c),
	})
	if err != nil {
		return businessError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Manual payment recorded",
		"payment": payment,
	})
}

// ApprovePayment promotes a provider-reported or open payment to confirmed
func ApprovePayment(c *fiber.Ctx) error {
	id, err := paymentIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	payment, err := reconciliation.ApprovePayment(id, adminEmail(c))
	if err != nil {
		return businessError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Payment approved",
		"payment": payment,
	})
}

// CheckPaymentApprovable reports whether the approve action would be allowed
func CheckPaymentApprovable(c *fiber.Ctx) error {
	id, err := paymentIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{
		"approvable": payment.IsApprovable(),
		"status":     payment.PaymentStatus,
	})
}

// DeletePayment soft-deletes by default; ?permanent=true purges the row
func DeletePayment(c *fiber.Ctx) error {
	id, err := paymentIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	permanent := c.Query("permanent") == "true"
	if err := reconciliation.DeletePayment(id, adminEmail(c), permanent); err != nil {
		return businessError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":   "Payment deleted",
		"permanent": permanent,
	})
}

// CheckPaymentDeletable reports whether the delete action would be allowed
func CheckPaymentDeletable(c *fiber.Ctx) error {
	id, err := paymentIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{
		"deletable": payment.IsDeletable(),
		"status":    payment.PaymentStatus,
	})
}

// GetAllPayments lists payments with optional status/method filters
func GetAllPayments(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Payment{})

	if status := c.Query("status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if method := c.Query("method"); method != "" {
		query = query.Where("payment_method = ?", method)
	}
	if requestID := c.Query("request_id"); requestID != "" {
		query = query.Where("request_id = ?", requestID)
	}

	var payments []models.Payment
	if err := query.Order("created_at DESC").Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve payments"})
	}

	return c.JSON(fiber.Map{
		"payments": payments,
		"count":    len(payments),
	})
}

// GetPaymentByID retrieves one payment with its audit trail
func GetPaymentByID(c *fiber.Ctx) error {
	id, err := paymentIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	var trail []models.PaymentAuditLog
	database.DB.Where("payment_id = ?", payment.ID).Order("created_at ASC").Find(&trail)

	return c.JSON(fiber.Map{
		"payment":     payment,
		"audit_trail": trail,
	})
}

// DeactivatePaymentLink expires an active link and cancels open payments
func DeactivatePaymentLink(c *fiber.Ctx) error {
	requestID, err := strconv.Atoi(c.Params("requestId"))
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	req := new(DeactivateLinkRequest)
	if err := c.BodyParser(req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := paymentLinks.Deactivate(uint(requestID), adminEmail(c), req.Reason); err != nil {
		return businessError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Payment link deactivated"})
}

// GetPaymentLinkStatus reports active/expired/none for a request's link
func GetPaymentLinkStatus(c *fiber.Ctx) error {
	requestID, err := strconv.Atoi(c.Params("requestId"))
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	state, request, err := paymentLinks.Status(uint(requestID))
	if err != nil {
		return businessError(c, err)
	}

	resp := fiber.Map{"state": state}
	if request.PaymentLinkExpiry != nil {
		resp["expires_at"] = request.PaymentLinkExpiry
		resp["seconds_remaining"] = int(time.Until(*request.PaymentLinkExpiry).Seconds())
	}
	return c.JSON(resp)
}
