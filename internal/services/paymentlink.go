package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

// DefaultLinkWindow is how long a freshly issued payment link stays valid.
const DefaultLinkWindow = time.Hour

// PaymentLinkService owns payment_link_expiry on service requests: issuing,
// reading and deactivating time-boxed payment links.
type PaymentLinkService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewPaymentLinkService(db *gorm.DB, notifier *NotificationService) *PaymentLinkService {
	return &PaymentLinkService{db: db, notifier: notifier}
}

// LinkState is what the status endpoint reports.
type LinkState string

const (
	LinkActive  LinkState = "active"
	LinkExpired LinkState = "expired"
	LinkNone    LinkState = "none"
)

// IssueLink stamps a new expiry on the request. A zero window means the
// default one hour; remaining-balance links pass a caller-specified window.
func (s *PaymentLinkService) IssueLink(requestID uint, window time.Duration) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load request: %w", err)
	}

	// A link invites payment against the estimate; without one there is
	// nothing to pay.
	if request.EstimatedCost == nil {
		return nil, ErrNoEstimatedCost
	}

	if window <= 0 {
		window = DefaultLinkWindow
	}
	expiry := time.Now().Add(window)

	if err := s.db.Model(&models.ServiceRequest{}).Where("id = ?", requestID).
		Update("payment_link_expiry", expiry).Error; err != nil {
		return nil, fmt.Errorf("failed to issue payment link: %w", err)
	}

	request.PaymentLinkExpiry = &expiry

	if s.notifier != nil {
		if err := s.notifier.NotifyPaymentLinkIssued(&request); err != nil {
			log.Printf("⚠️  link notification for request %d failed: %v", requestID, err)
		}
	}
	return &request, nil
}

// Status reports the link state for a request.
func (s *PaymentLinkService) Status(requestID uint) (LinkState, *models.ServiceRequest, error) {
	var request models.ServiceRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return LinkNone, nil, ErrRequestNotFound
		}
		return LinkNone, nil, fmt.Errorf("failed to load request: %w", err)
	}

	switch {
	case request.PaymentLinkExpiry == nil:
		return LinkNone, &request, nil
	case time.Now().Before(*request.PaymentLinkExpiry):
		return LinkActive, &request, nil
	default:
		return LinkExpired, &request, nil
	}
}

// Deactivate expires an active link immediately and cancels any open
// payments on the request, stamping the admin and reason into their notes.
// Deactivating an expired or absent link is rejected; callers are expected
// to check status first.
func (s *PaymentLinkService) Deactivate(requestID uint, adminEmail, reason string) error {
	var request models.ServiceRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrRequestNotFound
		}
		return fmt.Errorf("failed to load request: %w", err)
	}

	now := time.Now()
	if !request.HasActiveLink(now) {
		return ErrLinkNotActive
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ServiceRequest{}).Where("id = ?", requestID).
			Update("payment_link_expiry", now).Error; err != nil {
			return fmt.Errorf("failed to expire link: %w", err)
		}

		var open []models.Payment
		if err := tx.Where("request_id = ? AND payment_status IN ?", requestID,
			[]models.PaymentStatus{models.PaymentPending, models.PaymentProcessing}).
			Find(&open).Error; err != nil {
			return fmt.Errorf("failed to load open payments: %w", err)
		}

		for _, p := range open {
			note := appendNote(p.AdminNotes,
				fmt.Sprintf("Cancelled: payment link deactivated by %s. %s", adminEmail, reason))
			if err := tx.Model(&models.Payment{}).Where("id = ?", p.ID).
				Updates(map[string]interface{}{
					"payment_status": models.PaymentCancelled,
					"admin_notes":    note,
				}).Error; err != nil {
				return fmt.Errorf("failed to cancel payment %d: %w", p.ID, err)
			}
		}
		return nil
	})
}
