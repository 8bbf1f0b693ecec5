package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/database"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/services"
)

var (
	emailService        *services.EmailService
	notificationService *services.NotificationService
	paystackService     *services.PaystackService
	stripeService       *services.StripeService
	nowPaymentsService  *services.NOWPaymentsService
	tronService         *services.TronService
	reconciliation      *services.ReconciliationService
	paymentLinks        *services.PaymentLinkService
	cleanupService      *services.CleanupService
	cloudinaryService   *services.CloudinaryService

	validate = validator.New()
)

func InitEmailService() {
	emailService = services.NewEmailService()
}

// InitPaymentServices wires the provider adapters and the reconciliation
// stack. Call after database.Connect.
func InitPaymentServices() {
	notificationService = services.NewNotificationService(database.DB, emailService)
	paystackService = services.NewPaystackService()
	stripeService = services.NewStripeService()
	nowPaymentsService = services.NewNOWPaymentsService()
	tronService = services.NewTronService()
	reconciliation = services.NewReconciliationService(database.DB, notificationService)
	paymentLinks = services.NewPaymentLinkService(database.DB, notificationService)
	cleanupService = services.NewCleanupService(database.DB, notificationService)
}

func InitCloudinaryService() error {
	var err error
	cloudinaryService, err = services.NewCloudinaryService()
	if err != nil {
		return fmt.Errorf("failed to initialize Cloudinary service: %w", err)
	}
	return nil
}

// CleanupRunner exposes the cleanup service for the in-process scheduler.
func CleanupRunner() *services.CleanupService {
	return cleanupService
}

// businessError maps service-layer sentinel errors onto HTTP responses.
func businessError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrPaymentNotFound), errors.Is(err, services.ErrRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrHashInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyConfirmed),
		errors.Is(err, services.ErrPaymentClosed),
		errors.Is(err, services.ErrNotApprovable),
		errors.Is(err, services.ErrNotDeletable),
		errors.Is(err, services.ErrDuplicateReference),
		errors.Is(err, services.ErrAmountMismatch),
		errors.Is(err, services.ErrExceedsBalance),
		errors.Is(err, services.ErrLinkNotActive),
		errors.Is(err, services.ErrNoEstimatedCost):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Something went wrong",
			"details": err.Error(),
		})
	}
}
