package services

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

// AmountTolerance is the absolute slack allowed when comparing a recorded
// amount against a provider-verified one.
const AmountTolerance = 0.01

// CryptoAutoConfirmThreshold is the on-chain confirmation count at which a
// matching crypto payment is promoted without admin approval.
const CryptoAutoConfirmThreshold = 6

// ReconciliationService is the single authority for payment status
// transitions and for propagating their consequences onto the owning
// service request. Provider adapters, admin actions and the manual-entry
// flow all go through it; nothing else writes payment_status or the derived
// request fields.
type ReconciliationService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewReconciliationService(db *gorm.DB, notifier *NotificationService) *ReconciliationService {
	return &ReconciliationService{db: db, notifier: notifier}
}

// ManualPaymentInput describes an offline payment recorded by an admin.
type ManualPaymentInput struct {
	RequestID     uint
	Amount        float64
	Currency      string
	Method        models.PaymentMethod
	PaymentType   models.PaymentType
	Reference     string
	Notes         string
	AdminVerified bool
	AdminEmail    string
}

// livePaymentStatuses are the only statuses a payment may transition out of.
// failed and cancelled are dead ends; a retry means a new payment row.
var livePaymentStatuses = []models.PaymentStatus{
	models.PaymentPending, models.PaymentProcessing,
	models.PaymentSuccess, models.PaymentCompleted,
}

// ConfirmPayment promotes a payment to confirmed and recomputes the owning
// request's payment state. The status write is conditional on the row still
// being in a live status, so concurrent webhook delivery and admin approval
// cannot both win, and a late webhook cannot resurrect a failed or cancelled
// payment.
func (s *ReconciliationService) ConfirmPayment(paymentID uint, confirmedBy string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	switch payment.PaymentStatus {
	case models.PaymentConfirmed:
		return nil, ErrAlreadyConfirmed
	case models.PaymentDeleted:
		return nil, ErrNotApprovable
	case models.PaymentFailed, models.PaymentCancelled, models.PaymentDeclined, models.PaymentExpired:
		return nil, ErrPaymentClosed
	}

	now := time.Now()
	note := appendNote(payment.AdminNotes, fmt.Sprintf("Confirmed by %s", confirmedBy))

	res := s.db.Model(&models.Payment{}).
		Where("id = ? AND payment_status IN ?", payment.ID, livePaymentStatuses).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentConfirmed,
			"confirmed_at":   now,
			"confirmed_by":   confirmedBy,
			"admin_notes":    note,
			"error_message":  "",
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// The row left the live set between the load and the update. Reload
		// to report which race was lost.
		if err := s.db.First(&payment, paymentID).Error; err != nil {
			return nil, fmt.Errorf("failed to reload payment: %w", err)
		}
		if payment.PaymentStatus == models.PaymentConfirmed {
			return nil, ErrAlreadyConfirmed
		}
		return nil, ErrPaymentClosed
	}

	s.audit(payment.ID, "confirm", confirmedBy, fmt.Sprintf("amount %.2f %s", payment.Amount, payment.Currency))

	// Propagation failure is logged, never rolled back: the confirmed payment
	// is the durable fact and request state can be re-synced later.
	if err := s.SyncRequestPaymentState(payment.RequestID); err != nil {
		log.Printf("⚠️  payment %d confirmed but request %d sync failed: %v", payment.ID, payment.RequestID, err)
	}

	if err := s.db.First(&payment, paymentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload payment: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyPaymentConfirmed(&payment); err != nil {
			log.Printf("⚠️  notification for payment %d failed: %v", payment.ID, err)
		}
	}

	return &payment, nil
}

// FailPayment marks a payment failed with the provider's error message.
func (s *ReconciliationService) FailPayment(paymentID uint, reason string) error {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to load payment: %w", err)
	}
	switch payment.PaymentStatus {
	case models.PaymentConfirmed:
		// A confirmed payment never regresses on a late failure report.
		return ErrAlreadyConfirmed
	case models.PaymentCancelled, models.PaymentDeleted:
		return ErrPaymentClosed
	}

	note := appendNote(payment.AdminNotes, "Failed: "+reason)
	err := s.db.Model(&models.Payment{}).
		Where("id = ? AND payment_status NOT IN ?", payment.ID,
			[]models.PaymentStatus{models.PaymentConfirmed, models.PaymentCancelled, models.PaymentDeleted}).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentFailed,
			"error_message":  reason,
			"admin_notes":    note,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	s.audit(payment.ID, "fail", "system", reason)
	return nil
}

// MarkProcessing moves a payment into processing, e.g. while a crypto
// transaction gathers confirmations.
func (s *ReconciliationService) MarkProcessing(paymentID uint, detail string) error {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.PaymentStatus == models.PaymentConfirmed {
		return ErrAlreadyConfirmed
	}
	if !payment.IsApprovable() {
		// A late provider "waiting" must not reopen a failed or cancelled
		// payment.
		return ErrPaymentClosed
	}

	note := appendNote(payment.AdminNotes, detail)
	err := s.db.Model(&models.Payment{}).
		Where("id = ? AND payment_status IN ?", payment.ID, livePaymentStatuses).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentProcessing,
			"admin_notes":    note,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark payment processing: %w", err)
	}
	return nil
}

// ApprovePayment is the admin promotion path. Only provider-reported or
// still-open statuses are approvable; an already-confirmed payment is
// rejected without touching confirmed_at.
func (s *ReconciliationService) ApprovePayment(paymentID uint, adminEmail string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if payment.PaymentStatus == models.PaymentConfirmed {
		return nil, ErrAlreadyConfirmed
	}
	if !payment.IsApprovable() {
		return nil, ErrNotApprovable
	}

	return s.ConfirmPayment(payment.ID, adminEmail)
}

// SubmitCryptoTransaction attaches an on-chain transaction to a payment and
// applies the auto-confirmation rule: enough confirmations plus a matching
// amount promote it straight to confirmed, anything else waits in processing
// for admin approval.
func (s *ReconciliationService) SubmitCryptoTransaction(paymentID uint, txHash, address, network, symbol string, receivedAmount float64, confirmations int) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.PaymentStatus == models.PaymentConfirmed {
		return nil, ErrAlreadyConfirmed
	}
	if !payment.IsApprovable() {
		return nil, ErrPaymentClosed
	}

	// One on-chain transaction can only ever settle one payment.
	var count int64
	if err := s.db.Model(&models.Payment{}).
		Where("crypto_transaction_hash = ? AND id <> ?", txHash, payment.ID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check transaction hash: %w", err)
	}
	if count > 0 {
		return nil, ErrHashInUse
	}

	if math.Abs(receivedAmount-payment.Amount) >= AmountTolerance {
		return nil, fmt.Errorf("%w: expected %.2f, received %.2f", ErrAmountMismatch, payment.Amount, receivedAmount)
	}

	updates := map[string]interface{}{
		"crypto_transaction_hash": txHash,
		"crypto_address":          address,
		"crypto_network":          network,
		"crypto_symbol":           symbol,
		"crypto_amount":           receivedAmount,
		"payment_status":          models.PaymentProcessing,
		"admin_notes": appendNote(payment.AdminNotes,
			fmt.Sprintf("On-chain tx %s submitted (%d confirmations)", txHash, confirmations)),
	}
	err := s.db.Model(&models.Payment{}).
		Where("id = ? AND payment_status IN ?", payment.ID, livePaymentStatuses).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	s.audit(payment.ID, "crypto_submit", "system", txHash)

	if confirmations >= CryptoAutoConfirmThreshold {
		return s.ConfirmPayment(payment.ID, "api_verification")
	}

	if err := s.db.First(&payment, paymentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload payment: %w", err)
	}
	return &payment, nil
}

// RecordManualPayment creates a payment row for an offline method (bank
// transfer, cash, cheque). Verified entries are created confirmed and the
// request totals updated incrementally before the idempotent recompute
// reconciles them.
func (s *ReconciliationService) RecordManualPayment(in ManualPaymentInput) (*models.Payment, error) {
	var request models.ServiceRequest
	if err := s.db.First(&request, in.RequestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load request: %w", err)
	}

	if in.Reference != "" {
		dup, err := s.hasMatchingReference(in.RequestID, in.Method, in.Reference)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, ErrDuplicateReference
		}
	}

	if in.PaymentType == models.PaymentTypeSplit && request.EstimatedCost != nil && in.Amount > request.BalanceDue+AmountTolerance {
		return nil, fmt.Errorf("%w: balance due is %.2f", ErrExceedsBalance, request.BalanceDue)
	}

	var seq int64
	if err := s.db.Model(&models.Payment{}).Where("request_id = ?", in.RequestID).Count(&seq).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	status := models.PaymentPending
	if in.AdminVerified {
		status = models.PaymentCompleted
	}

	totalDue := 0.0
	if request.EstimatedCost != nil {
		totalDue = *request.EstimatedCost
	}

	payment := models.Payment{
		RequestID:        in.RequestID,
		PaymentSequence:  int(seq) + 1,
		Amount:           in.Amount,
		Currency:         in.Currency,
		PaymentMethod:    in.Method,
		PaymentType:      in.PaymentType,
		IsPartialPayment: in.PaymentType == models.PaymentTypeSplit,
		TotalAmountDue:   totalDue,
		PaymentStatus:    status,
		ManualEntry:      true,
		AdminVerified:    in.AdminVerified,
		AdminNotes:       appendNote("", fmt.Sprintf("Manual entry by %s. %s", in.AdminEmail, in.Notes)),
		Metadata:         map[string]interface{}{"manual_reference": in.Reference, "recorded_by": in.AdminEmail},
	}

	if err := s.db.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	s.audit(payment.ID, "manual_entry", in.AdminEmail, in.Reference)

	if !in.AdminVerified {
		return &payment, nil
	}

	// Incremental update first so the new total is visible immediately, then
	// the recompute inside ConfirmPayment reconciles to the same figures.
	if request.EstimatedCost != nil {
		incTotal := request.TotalPaid + in.Amount
		incBalance := math.Max(0, *request.EstimatedCost-incTotal)
		if err := s.db.Model(&models.ServiceRequest{}).Where("id = ?", request.ID).
			Updates(map[string]interface{}{"total_paid": incTotal, "balance_due": incBalance}).Error; err != nil {
			log.Printf("⚠️  incremental totals update for request %d failed: %v", request.ID, err)
		}
	}

	return s.ConfirmPayment(payment.ID, in.AdminEmail)
}

// DeletePayment soft-deletes by default; permanent removes the row and its
// audit trail. Both are restricted to non-successful statuses.
func (s *ReconciliationService) DeletePayment(paymentID uint, adminEmail string, permanent bool) error {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to load payment: %w", err)
	}

	if !payment.IsDeletable() {
		return ErrNotDeletable
	}

	if permanent {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("payment_id = ?", payment.ID).Delete(&models.PaymentAuditLog{}).Error; err != nil {
				return fmt.Errorf("failed to purge audit logs: %w", err)
			}
			if err := tx.Delete(&models.Payment{}, payment.ID).Error; err != nil {
				return fmt.Errorf("failed to delete payment: %w", err)
			}
			return nil
		})
	}

	now := time.Now()
	err := s.db.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentDeleted,
			"deleted_at":     now,
			"deleted_by":     adminEmail,
			"admin_notes":    appendNote(payment.AdminNotes, "Deleted by "+adminEmail),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	s.audit(payment.ID, "delete", adminEmail, "soft delete")
	return nil
}

// VerifyReportedAmount rejects provider reports that disagree with the
// recorded amount beyond the tolerance.
func (s *ReconciliationService) VerifyReportedAmount(payment *models.Payment, reported float64) error {
	if math.Abs(payment.Amount-reported) >= AmountTolerance {
		return fmt.Errorf("%w: recorded %.2f, provider reported %.2f", ErrAmountMismatch, payment.Amount, reported)
	}
	return nil
}

// SyncRequestPaymentState recomputes total_paid, balance_due,
// partial_payment_status and the request status from the full set of
// confirmed payments. It derives, never increments, so re-running it is
// always safe.
func (s *ReconciliationService) SyncRequestPaymentState(requestID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var request models.ServiceRequest
		if err := tx.First(&request, requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to load request: %w", err)
		}

		var confirmed []models.Payment
		if err := tx.Where("request_id = ? AND payment_status = ?", requestID, models.PaymentConfirmed).
			Find(&confirmed).Error; err != nil {
			return fmt.Errorf("failed to load confirmed payments: %w", err)
		}

		totalPaid := 0.0
		hasFull := false
		splitCount := 0
		for _, p := range confirmed {
			totalPaid += p.Amount
			if p.PaymentType == models.PaymentTypeFull {
				hasFull = true
			} else {
				splitCount++
			}
		}

		balanceDue := 0.0
		if request.EstimatedCost != nil {
			balanceDue = math.Max(0, *request.EstimatedCost-totalPaid)
		}

		partial := models.PartialNone
		switch {
		case totalPaid == 0:
			partial = models.PartialNone
		case balanceDue == 0:
			partial = models.PartialCompleted
		default:
			partial = models.PartialFirstPaid
		}

		updates := map[string]interface{}{
			"total_paid":             totalPaid,
			"balance_due":            balanceDue,
			"partial_payment_status": partial,
		}

		// Payment transitions only move the request forward. Cancellation is
		// the only path backwards and it does not come through here.
		if len(confirmed) > 0 {
			paid := hasFull || splitCount >= 2 || balanceDue == 0
			if paid {
				if advancesRequestStatus(request.Status, models.RequestPaid) {
					updates["status"] = models.RequestPaid
				}
			} else if advancesRequestStatus(request.Status, models.RequestPartiallyPaid) {
				updates["status"] = models.RequestPartiallyPaid
			}
		}

		if err := tx.Model(&models.ServiceRequest{}).Where("id = ?", requestID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		return nil
	})
}

// hasMatchingReference does a best-effort substring match of the reference
// against metadata of existing payments for the same request and method.
func (s *ReconciliationService) hasMatchingReference(requestID uint, method models.PaymentMethod, reference string) (bool, error) {
	var existing []models.Payment
	if err := s.db.Where("request_id = ? AND payment_method = ? AND payment_status <> ?",
		requestID, method, models.PaymentDeleted).Find(&existing).Error; err != nil {
		return false, fmt.Errorf("failed to check for duplicate reference: %w", err)
	}
	needle := strings.ToLower(strings.TrimSpace(reference))
	for _, p := range existing {
		for _, v := range p.Metadata {
			if sv, ok := v.(string); ok && sv != "" && strings.Contains(strings.ToLower(sv), needle) {
				return true, nil
			}
		}
	}
	return false, nil
}

// audit records an action against a payment. The audit table being absent or
// unavailable never fails the caller.
func (s *ReconciliationService) audit(paymentID uint, action, actor, detail string) {
	entry := models.PaymentAuditLog{
		PaymentID: paymentID,
		Action:    action,
		Actor:     actor,
		Detail:    detail,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("⚠️  audit log write failed for payment %d (%s): %v", paymentID, action, err)
	}
}

func appendNote(existing, note string) string {
	stamped := fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), note)
	if existing == "" {
		return stamped
	}
	return existing + "\n" + stamped
}

// statusRank orders request statuses along the payment axis so transitions
// never regress a request.
func statusRank(s models.RequestStatus) int {
	switch s {
	case models.RequestPending:
		return 0
	case models.RequestApproved:
		return 1
	case models.RequestPartiallyPaid:
		return 2
	case models.RequestPaid, models.RequestPaidInFull:
		return 3
	case models.RequestInProgress:
		return 4
	case models.RequestConfirmed, models.RequestCompleted:
		return 5
	default:
		return -1
	}
}

func advancesRequestStatus(current, next models.RequestStatus) bool {
	if current == models.RequestCancelled {
		return false
	}
	return statusRank(next) > statusRank(current)
}
