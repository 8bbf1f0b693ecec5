package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

// NotificationService writes client-facing notification rows and sends the
// matching emails best-effort. A failed email never fails the caller.
type NotificationService struct {
	db    *gorm.DB
	email *EmailService
}

func NewNotificationService(db *gorm.DB, email *EmailService) *NotificationService {
	return &NotificationService{db: db, email: email}
}

// CreateNotification creates a new notification row
func (s *NotificationService) CreateNotification(clientID uint, notifType models.NotificationType, title, message string, data map[string]interface{}) error {
	notification := models.Notification{
		ClientID: clientID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Data:     data,
		IsRead:   false,
	}

	if err := s.db.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// NotifyPaymentLinkIssued tells the client a payment link is ready.
func (s *NotificationService) NotifyPaymentLinkIssued(request *models.ServiceRequest) error {
	amount := 0.0
	if request.EstimatedCost != nil {
		amount = *request.EstimatedCost
	}
	err := s.CreateNotification(
		request.ClientID,
		models.NotificationPaymentLinkIssued,
		"Payment Link Ready",
		fmt.Sprintf("A payment link for \"%s\" ($%.2f) is ready. It expires in one hour.", request.Title, amount),
		map[string]interface{}{
			"request_id": request.ID,
			"amount":     amount,
			"expires_at": request.PaymentLinkExpiry,
		},
	)
	if err != nil {
		return err
	}

	s.sendEmail(request.ClientID, "Your payment link is ready",
		fmt.Sprintf("A payment link for \"%s\" is ready. It expires in one hour.", request.Title))
	return nil
}

// NotifyPaymentConfirmed tells the client their payment went through.
func (s *NotificationService) NotifyPaymentConfirmed(payment *models.Payment) error {
	var request models.ServiceRequest
	if err := s.db.First(&request, payment.RequestID).Error; err != nil {
		return fmt.Errorf("failed to load request for notification: %w", err)
	}

	err := s.CreateNotification(
		request.ClientID,
		models.NotificationPaymentConfirmed,
		"Payment Received",
		fmt.Sprintf("Your payment of %.2f %s for \"%s\" has been confirmed.", payment.Amount, payment.Currency, request.Title),
		map[string]interface{}{
			"request_id": request.ID,
			"payment_id": payment.ID,
			"amount":     payment.Amount,
		},
	)
	if err != nil {
		return err
	}

	s.sendEmail(request.ClientID, "Payment received",
		fmt.Sprintf("We have received your payment of %.2f %s for \"%s\". Thank you!", payment.Amount, payment.Currency, request.Title))
	return nil
}

// NotifyPaymentCancelled tells the client an open payment was cancelled.
func (s *NotificationService) NotifyPaymentCancelled(payment *models.Payment, reason string) error {
	var request models.ServiceRequest
	if err := s.db.First(&request, payment.RequestID).Error; err != nil {
		return fmt.Errorf("failed to load request for notification: %w", err)
	}

	return s.CreateNotification(
		request.ClientID,
		models.NotificationPaymentCancelled,
		"Payment Cancelled",
		fmt.Sprintf("Your pending payment of %.2f %s for \"%s\" was cancelled: %s.", payment.Amount, payment.Currency, request.Title, reason),
		map[string]interface{}{
			"request_id": request.ID,
			"payment_id": payment.ID,
			"reason":     reason,
		},
	)
}

// NotifyRequestApproved tells the client their request was approved.
func (s *NotificationService) NotifyRequestApproved(request *models.ServiceRequest) error {
	amount := 0.0
	if request.EstimatedCost != nil {
		amount = *request.EstimatedCost
	}
	return s.CreateNotification(
		request.ClientID,
		models.NotificationRequestApproved,
		"Request Approved",
		fmt.Sprintf("Your request \"%s\" has been approved with an estimated cost of $%.2f.", request.Title, amount),
		map[string]interface{}{
			"request_id":     request.ID,
			"estimated_cost": amount,
		},
	)
}

func (s *NotificationService) sendEmail(clientID uint, subject, body string) {
	if s.email == nil {
		return
	}
	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		log.Printf("⚠️  email skipped, client %d not found: %v", clientID, err)
		return
	}
	if err := s.email.SendPaymentEmail(client.Email, subject, body); err != nil {
		log.Printf("⚠️  email to %s failed: %v", client.Email, err)
	}
}
