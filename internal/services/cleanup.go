package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

const (
	// PendingPaymentTimeout is how long a pending payment may sit before the
	// sweep cancels it.
	PendingPaymentTimeout = 24 * time.Hour
	// StaleLinkTimeout is how long an elapsed payment link lingers before
	// being cleared.
	StaleLinkTimeout = time.Hour
	// PurgeAge is how old a dead payment must be before hard deletion.
	PurgeAge = 7 * 24 * time.Hour
)

// CleanupResult reports what each sweep did. Sweeps fail independently;
// one sweep's error never blocks another.
type CleanupResult struct {
	CancelledPayments int      `json:"cancelled_payments"`
	ClearedLinks      int      `json:"cleared_links"`
	PurgedPayments    int      `json:"purged_payments"`
	Errors            []string `json:"errors,omitempty"`
	RanAt             time.Time `json:"ran_at"`
}

// CleanupService sweeps expired pending payments, stale payment links and
// long-dead payment rows. Triggered by the cron endpoint and the in-process
// schedule.
type CleanupService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewCleanupService(db *gorm.DB, notifier *NotificationService) *CleanupService {
	return &CleanupService{db: db, notifier: notifier}
}

// Run executes the three sweeps and collects their outcomes.
func (s *CleanupService) Run() CleanupResult {
	result := CleanupResult{RanAt: time.Now()}

	cancelled, err := s.cancelExpiredPending(result.RanAt)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("pending sweep: %v", err))
	}
	result.CancelledPayments = cancelled

	cleared, err := s.clearStaleLinks(result.RanAt)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("link sweep: %v", err))
	}
	result.ClearedLinks = cleared

	purged, err := s.purgeDeadPayments(result.RanAt)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("purge sweep: %v", err))
	}
	result.PurgedPayments = purged

	log.Printf("🧹 cleanup: %d payments cancelled, %d links cleared, %d rows purged, %d errors",
		result.CancelledPayments, result.ClearedLinks, result.PurgedPayments, len(result.Errors))
	return result
}

// cancelExpiredPending bulk-cancels pending payments older than the timeout
// and notifies the affected clients best-effort.
func (s *CleanupService) cancelExpiredPending(now time.Time) (int, error) {
	cutoff := now.Add(-PendingPaymentTimeout)

	var stale []models.Payment
	if err := s.db.Where("payment_status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("failed to load stale payments: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	count := 0
	for _, p := range stale {
		note := appendNote(p.AdminNotes, "Cancelled automatically: payment not completed within 24 hours")
		err := s.db.Model(&models.Payment{}).Where("id = ? AND payment_status = ?", p.ID, models.PaymentPending).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentCancelled,
				"admin_notes":    note,
			}).Error
		if err != nil {
			return count, fmt.Errorf("failed to cancel payment %d: %w", p.ID, err)
		}
		count++

		if s.notifier != nil {
			if nerr := s.notifier.NotifyPaymentCancelled(&p, "payment window expired"); nerr != nil {
				log.Printf("⚠️  cancellation notice for payment %d failed: %v", p.ID, nerr)
			}
		}
	}
	return count, nil
}

// clearStaleLinks nulls payment_link_expiry on requests whose link elapsed
// more than an hour ago.
func (s *CleanupService) clearStaleLinks(now time.Time) (int, error) {
	cutoff := now.Add(-StaleLinkTimeout)
	res := s.db.Model(&models.ServiceRequest{}).
		Where("payment_link_expiry IS NOT NULL AND payment_link_expiry < ?", cutoff).
		Update("payment_link_expiry", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear stale links: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// purgeDeadPayments hard-deletes failed/cancelled/expired rows older than a
// week, audit trail included.
func (s *CleanupService) purgeDeadPayments(now time.Time) (int, error) {
	cutoff := now.Add(-PurgeAge)

	var dead []models.Payment
	if err := s.db.Where("payment_status IN ? AND created_at < ?",
		[]models.PaymentStatus{models.PaymentFailed, models.PaymentCancelled, models.PaymentExpired}, cutoff).
		Find(&dead).Error; err != nil {
		return 0, fmt.Errorf("failed to load purgeable payments: %w", err)
	}

	count := 0
	for _, p := range dead {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("payment_id = ?", p.ID).Delete(&models.PaymentAuditLog{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Payment{}, p.ID).Error
		})
		if err != nil {
			return count, fmt.Errorf("failed to purge payment %d: %w", p.ID, err)
		}
		count++
	}
	return count, nil
}
