package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

func TestConfirmPaymentPromotesAndSyncsRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)

	request := createTestRequest(t, db, 1000)
	payment := createTestPayment(t, db, request.ID, 1000, models.MethodPaystack, models.PaymentTypeFull, models.PaymentPending)

	confirmed, err := svc.ConfirmPayment(payment.ID, "api_verification")
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	if confirmed.PaymentStatus != models.PaymentConfirmed {
		t.Errorf("status = %q, want confirmed", confirmed.PaymentStatus)
	}
	if confirmed.ConfirmedBy != "api_verification" {
		t.Errorf("confirmed_by = %q, want api_verification", confirmed.ConfirmedBy)
	}
	if confirmed.ConfirmedAt == nil {
		t.Error("confirmed_at not set")
	}

	got := reloadRequest(t, db, request.ID)
	if got.TotalPaid != 1000 {
		t.Errorf("total_paid = %v, want 1000", got.TotalPaid)
	}
	if got.BalanceDue != 0 {
		t.Errorf("balance_due = %v, want 0", got.BalanceDue)
	}
	if got.Status != models.RequestPaid {
		t.Errorf("request status = %q, want paid", got.Status)
	}
	if got.PartialPaymentStatus != models.PartialCompleted {
		t.Errorf("partial_payment_status = %q, want completed", got.PartialPaymentStatus)
	}
}

func TestConfirmPaymentSecondConfirmationRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)

	request := createTestRequest(t, db, 500)
	payment := createTestPayment(t, db, request.ID, 500, models.MethodStripe, models.PaymentTypeFull, models.PaymentPending)

	first, err := svc.ConfirmPayment(payment.ID, "stripe_webhook")
	if err != nil {
		t.Fatalf("first ConfirmPayment: %v", err)
	}

	_, err = svc.ConfirmPayment(payment.ID, "admin@kamisoft.dev")
	if !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("second ConfirmPayment error = %v, want ErrAlreadyConfirmed", err)
	}

	got := reloadPayment(t, db, payment.ID)
	if got.ConfirmedBy != "stripe_webhook" {
		t.Errorf("confirmed_by = %q, want the original stripe_webhook", got.ConfirmedBy)
	}
	if got.ConfirmedAt == nil || !got.ConfirmedAt.Equal(*first.ConfirmedAt) {
		t.Errorf("confirmed_at changed on rejected re-confirmation: %v vs %v", got.ConfirmedAt, first.ConfirmedAt)
	}

	// Totals must not double count.
	req := reloadRequest(t, db, request.ID)
	if req.TotalPaid != 500 {
		t.Errorf("total_paid = %v, want 500", req.TotalPaid)
	}
}

func TestConfirmPaymentClosedStatusesRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)
	request := createTestRequest(t, db, 500)

	for _, status := range []models.PaymentStatus{models.PaymentFailed, models.PaymentCancelled} {
		t.Run(string(status), func(t *testing.T) {
			payment := createTestPayment(t, db, request.ID, 500, models.MethodStripe, models.PaymentTypeFull, status)

			_, err := svc.ConfirmPayment(payment.ID, "stripe_webhook")
			if !errors.Is(err, ErrPaymentClosed) {
				t.Fatalf("ConfirmPayment error = %v, want ErrPaymentClosed", err)
			}

			got := reloadPayment(t, db, payment.ID)
			if got.PaymentStatus != status {
				t.Errorf("status = %q, want %q unchanged", got.PaymentStatus, status)
			}
			if got.ConfirmedAt != nil || got.ConfirmedBy != "" {
				t.Errorf("confirmation fields written: at=%v by=%q", got.ConfirmedAt, got.ConfirmedBy)
			}
		})
	}

	// Totals untouched: no resurrection means no money counted.
	if req := reloadRequest(t, db, request.ID); req.TotalPaid != 0 {
		t.Errorf("total_paid = %v, want 0", req.TotalPaid)
	}
}

func TestMarkProcessingClosedStatusesRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)
	request := createTestRequest(t, db, 100)

	for _, status := range []models.PaymentStatus{models.PaymentFailed, models.PaymentCancelled} {
		t.Run(string(status), func(t *testing.T) {
			payment := createTestPayment(t, db, request.ID, 100, models.MethodCrypto, models.PaymentTypeFull, status)

			err := svc.MarkProcessing(payment.ID, "Provider status: waiting")
			if !errors.Is(err, ErrPaymentClosed) {
				t.Fatalf("MarkProcessing error = %v, want ErrPaymentClosed", err)
			}
			if got := reloadPayment(t, db, payment.ID); got.PaymentStatus != status {
				t.Errorf("status = %q, want %q unchanged", got.PaymentStatus, status)
			}
		})
	}
}

func TestSubmitCryptoTransactionClosedRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)
	request := createTestRequest(t, db, 250)
	payment := createTestPayment(t, db, request.ID, 250, models.MethodCrypto, models.PaymentTypeFull, models.PaymentCancelled)

	_, err := svc.SubmitCryptoTransaction(payment.ID, "0xlate", "TAddr1", "tron", "USDT", 250, 6)
	if !errors.Is(err, ErrPaymentClosed) {
		t.Fatalf("SubmitCryptoTransaction error = %v, want ErrPaymentClosed", err)
	}
	if got := reloadPayment(t, db, payment.ID); got.PaymentStatus != models.PaymentCancelled {
		t.Errorf("status = %q, want cancelled unchanged", got.PaymentStatus)
	}
}

// A rival confirmation lands between the load and the conditional status
// update. The conditional write must lose and leave the rival's confirmation
// untouched.
func TestConfirmPaymentLosesRaceToRivalConfirmation(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)
	request := createTestRequest(t, db, 500)
	payment := createTestPayment(t, db, request.ID, 500, models.MethodStripe, models.PaymentTypeFull, models.PaymentPending)

	rivalAt := time.Now().Add(-time.Minute).Truncate(time.Second)
	flipped := false
	err := db.Callback().Query().After("gorm:query").Register("rival_confirmation", func(tx *gorm.DB) {
		if flipped || tx.Statement == nil {
			return
		}
		loaded, ok := tx.Statement.Dest.(*models.Payment)
		if !ok || loaded.ID != payment.ID || loaded.PaymentStatus != models.PaymentPending {
			return
		}
		flipped = true
		ferr := db.Exec(
			"UPDATE payments SET payment_status = ?, confirmed_at = ?, confirmed_by = ? WHERE id = ?",
			models.PaymentConfirmed, rivalAt, "stripe_webhook", payment.ID,
		).Error
		if ferr != nil {
			t.Errorf("rival confirmation write failed: %v", ferr)
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	_, err = svc.ConfirmPayment(payment.ID, "admin@kamisoft.dev")
	if !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("ConfirmPayment error = %v, want ErrAlreadyConfirmed", err)
	}
	if !flipped {
		t.Fatal("rival confirmation never ran")
	}

	got := reloadPayment(t, db, payment.ID)
	if got.ConfirmedBy != "stripe_webhook" {
		t.Errorf("confirmed_by = %q, want the rival's stripe_webhook", got.ConfirmedBy)
	}
	if got.ConfirmedAt == nil || got.ConfirmedAt.Unix() != rivalAt.Unix() {
		t.Errorf("confirmed_at = %v, want the rival's %v", got.ConfirmedAt, rivalAt)
	}
}

func TestSplitPaymentsAdvanceRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)

	request := createTestRequest(t, db, 1000)

	first := createTestPayment(t, db, request.ID, 400, models.MethodPaystack, models.PaymentTypeSplit, models.PaymentPending)
	if _, err := svc.ConfirmPayment(first.ID, "api_verification"); err != nil {
		t.Fatalf("confirm first split: %v", err)
	}

	got := reloadRequest(t, db, request.ID)
	if got.Status != models.RequestPartiallyPaid {
		t.Errorf("after first split: status = %q, want partially_paid", got.Status)
	}
	if got.PartialPaymentStatus != models.PartialFirstPaid {
		t.Errorf("after first split: partial = %q, want first_paid", got.PartialPaymentStatus)
	}
	if got.BalanceDue != 600 {
		t.Errorf("after first split: balance_due = %v, want 600", got.BalanceDue)
	}

	second := createTestPayment(t, db, request.ID, 600, models.MethodStripe, models.PaymentTypeSplit, models.PaymentPending)
	if _, err := svc.ConfirmPayment(second.ID, "stripe_webhook"); err != nil {
		t.Fatalf("confirm second split: %v", err)
	}

	got = reloadRequest(t, db, request.ID)
	if got.Status != models.RequestPaid {
		t.Errorf("after second split: status = %q, want paid", got.Status)
	}
	if got.PartialPaymentStatus != models.PartialCompleted {
		t.Errorf("after second split: partial = %q, want completed", got.PartialPaymentStatus)
	}
	if got.TotalPaid != 1000 || got.BalanceDue != 0 {
		t.Errorf("after second split: total_paid = %v, balance_due = %v", got.TotalPaid, got.BalanceDue)
	}
}

func TestFullPaymentMarksPaidEvenWithBalanceOutstanding(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)

	// A confirmed full-type payment settles the request even when the amount
	// came in under the estimate.
	request := createTestRequest(t, db, 1000)
	payment := createTestPayment(t, db, request.ID, 800, models.MethodPaystack, models.PaymentTypeFull, models.PaymentPending)

	if _, err := svc.ConfirmPayment(payment.ID, "api_verification"); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	got := reloadRequest(t, db, request.ID)
	if got.Status != models.RequestPaid {
		t.Errorf("status = %q, want paid", got.Status)
	}
	if got.BalanceDue != 200 {
		t.Errorf("balance_due = %v, want 200", got.BalanceDue)
	}
}

func TestSyncRequestPaymentStateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)

	request := createTestRequest(t, db, 1200)
	payment := createTestPayment(t, db, request.ID, 700, models.MethodCrypto, models.PaymentTypeSplit, models.PaymentPending)
	if _, err := svc.ConfirmPayment(payment.ID, "api_verification"); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.SyncRequestPaymentState(request.ID); err != nil {
			t.Fatalf("sync #%d: %v", i+1, err)
		}
	}

	got := reloadRequest(t, db, request.ID)
	if got.TotalPaid != 700 {
		t.Errorf("total_paid = %v, want 700 after repeated syncs", got.TotalPaid)
	}
	if math.Abs(got.TotalPaid+got.BalanceDue-*got.EstimatedCost) > 1e-9 {
		t.Errorf("total_paid %v + balance_due %v != estimated_cost %v", got.TotalPaid, got.BalanceDue, *got.EstimatedCost)
	}
}

func TestSubmitCryptoTransaction(t *testing.T) {
	t.Run("auto confirm at threshold", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 250)
		payment := createTestPayment(t, db, request.ID, 250, models.MethodCrypto, models.PaymentTypeFull, models.PaymentPending)

		got, err := svc.SubmitCryptoTransaction(payment.ID, "0xabc123", "TAddr1", "tron", "USDT", 250, 6)
		if err != nil {
			t.Fatalf("SubmitCryptoTransaction: %v", err)
		}
		if got.PaymentStatus != models.PaymentConfirmed {
			t.Errorf("status = %q, want confirmed", got.PaymentStatus)
		}
		if got.ConfirmedBy != "api_verification" {
			t.Errorf("confirmed_by = %q, want api_verification", got.ConfirmedBy)
		}
		if got.CryptoTransactionHash != "0xabc123" {
			t.Errorf("crypto_transaction_hash = %q", got.CryptoTransactionHash)
		}
	})

	t.Run("below threshold stays processing", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 250)
		payment := createTestPayment(t, db, request.ID, 250, models.MethodCrypto, models.PaymentTypeFull, models.PaymentPending)

		got, err := svc.SubmitCryptoTransaction(payment.ID, "0xdef456", "TAddr1", "tron", "USDT", 250, 3)
		if err != nil {
			t.Fatalf("SubmitCryptoTransaction: %v", err)
		}
		if got.PaymentStatus != models.PaymentProcessing {
			t.Errorf("status = %q, want processing", got.PaymentStatus)
		}
	})

	t.Run("hash already attached elsewhere", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 500)

		other := createTestPayment(t, db, request.ID, 250, models.MethodCrypto, models.PaymentTypeSplit, models.PaymentProcessing)
		if err := db.Model(other).Update("crypto_transaction_hash", "0xshared").Error; err != nil {
			t.Fatalf("seed hash: %v", err)
		}

		payment := createTestPayment(t, db, request.ID, 250, models.MethodCrypto, models.PaymentTypeSplit, models.PaymentPending)
		_, err := svc.SubmitCryptoTransaction(payment.ID, "0xshared", "TAddr1", "tron", "USDT", 250, 6)
		if !errors.Is(err, ErrHashInUse) {
			t.Fatalf("error = %v, want ErrHashInUse", err)
		}
	})

	t.Run("amount mismatch rejected", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 250)
		payment := createTestPayment(t, db, request.ID, 250, models.MethodCrypto, models.PaymentTypeFull, models.PaymentPending)

		_, err := svc.SubmitCryptoTransaction(payment.ID, "0x999", "TAddr1", "tron", "USDT", 200, 6)
		if !errors.Is(err, ErrAmountMismatch) {
			t.Fatalf("error = %v, want ErrAmountMismatch", err)
		}
		if got := reloadPayment(t, db, payment.ID); got.PaymentStatus != models.PaymentPending {
			t.Errorf("status after rejection = %q, want pending", got.PaymentStatus)
		}
	})
}

func TestRecordManualPayment(t *testing.T) {
	t.Run("verified entry confirms immediately", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 1000)

		payment, err := svc.RecordManualPayment(ManualPaymentInput{
			RequestID:     request.ID,
			Amount:        1000,
			Currency:      "USD",
			Method:        models.MethodBankTransfer,
			PaymentType:   models.PaymentTypeFull,
			Reference:     "WIRE-2026-001",
			AdminVerified: true,
			AdminEmail:    "admin@kamisoft.dev",
		})
		if err != nil {
			t.Fatalf("RecordManualPayment: %v", err)
		}
		if payment.PaymentStatus != models.PaymentConfirmed {
			t.Errorf("status = %q, want confirmed", payment.PaymentStatus)
		}
		if !payment.ManualEntry || !payment.AdminVerified {
			t.Error("manual_entry and admin_verified flags not set")
		}

		got := reloadRequest(t, db, request.ID)
		if got.TotalPaid != 1000 || got.BalanceDue != 0 {
			t.Errorf("total_paid = %v, balance_due = %v after verified manual entry", got.TotalPaid, got.BalanceDue)
		}
		if got.Status != models.RequestPaid {
			t.Errorf("request status = %q, want paid", got.Status)
		}
	})

	t.Run("unverified entry stays pending", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 1000)

		payment, err := svc.RecordManualPayment(ManualPaymentInput{
			RequestID:   request.ID,
			Amount:      400,
			Currency:    "USD",
			Method:      models.MethodCash,
			PaymentType: models.PaymentTypeSplit,
			AdminEmail:  "admin@kamisoft.dev",
		})
		if err != nil {
			t.Fatalf("RecordManualPayment: %v", err)
		}
		if payment.PaymentStatus != models.PaymentPending {
			t.Errorf("status = %q, want pending", payment.PaymentStatus)
		}

		got := reloadRequest(t, db, request.ID)
		if got.TotalPaid != 0 {
			t.Errorf("total_paid = %v, want 0 for unverified entry", got.TotalPaid)
		}
	})

	t.Run("duplicate reference rejected", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 1000)

		in := ManualPaymentInput{
			RequestID:   request.ID,
			Amount:      400,
			Currency:    "USD",
			Method:      models.MethodBankTransfer,
			PaymentType: models.PaymentTypeSplit,
			Reference:   "WIRE-2026-007",
			AdminEmail:  "admin@kamisoft.dev",
		}
		if _, err := svc.RecordManualPayment(in); err != nil {
			t.Fatalf("first RecordManualPayment: %v", err)
		}
		_, err := svc.RecordManualPayment(in)
		if !errors.Is(err, ErrDuplicateReference) {
			t.Fatalf("error = %v, want ErrDuplicateReference", err)
		}
	})

	t.Run("split exceeding balance rejected", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 1000)

		_, err := svc.RecordManualPayment(ManualPaymentInput{
			RequestID:   request.ID,
			Amount:      1500,
			Currency:    "USD",
			Method:      models.MethodBankTransfer,
			PaymentType: models.PaymentTypeSplit,
			AdminEmail:  "admin@kamisoft.dev",
		})
		if !errors.Is(err, ErrExceedsBalance) {
			t.Fatalf("error = %v, want ErrExceedsBalance", err)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)

		_, err := svc.RecordManualPayment(ManualPaymentInput{RequestID: 9999, Amount: 10, Currency: "USD", Method: models.MethodCash, PaymentType: models.PaymentTypeFull})
		if !errors.Is(err, ErrRequestNotFound) {
			t.Fatalf("error = %v, want ErrRequestNotFound", err)
		}
	})
}

func TestApprovePayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)
	request := createTestRequest(t, db, 300)

	t.Run("provider reported success is approvable", func(t *testing.T) {
		payment := createTestPayment(t, db, request.ID, 300, models.MethodPaystack, models.PaymentTypeFull, models.PaymentSuccess)
		got, err := svc.ApprovePayment(payment.ID, "admin@kamisoft.dev")
		if err != nil {
			t.Fatalf("ApprovePayment: %v", err)
		}
		if got.ConfirmedBy != "admin@kamisoft.dev" {
			t.Errorf("confirmed_by = %q, want admin email", got.ConfirmedBy)
		}
	})

	t.Run("confirmed payment rejected", func(t *testing.T) {
		payment := createTestPayment(t, db, request.ID, 300, models.MethodPaystack, models.PaymentTypeFull, models.PaymentConfirmed)
		_, err := svc.ApprovePayment(payment.ID, "admin@kamisoft.dev")
		if !errors.Is(err, ErrAlreadyConfirmed) {
			t.Fatalf("error = %v, want ErrAlreadyConfirmed", err)
		}
	})

	t.Run("failed payment not approvable", func(t *testing.T) {
		payment := createTestPayment(t, db, request.ID, 300, models.MethodPaystack, models.PaymentTypeFull, models.PaymentFailed)
		_, err := svc.ApprovePayment(payment.ID, "admin@kamisoft.dev")
		if !errors.Is(err, ErrNotApprovable) {
			t.Fatalf("error = %v, want ErrNotApprovable", err)
		}
	})
}

func TestFailPayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, nil)
	request := createTestRequest(t, db, 100)

	payment := createTestPayment(t, db, request.ID, 100, models.MethodStripe, models.PaymentTypeFull, models.PaymentPending)
	if err := svc.FailPayment(payment.ID, "card_declined"); err != nil {
		t.Fatalf("FailPayment: %v", err)
	}
	got := reloadPayment(t, db, payment.ID)
	if got.PaymentStatus != models.PaymentFailed {
		t.Errorf("status = %q, want failed", got.PaymentStatus)
	}
	if got.ErrorMessage != "card_declined" {
		t.Errorf("error_message = %q", got.ErrorMessage)
	}

	// A late failure report never regresses a confirmed payment.
	confirmed := createTestPayment(t, db, request.ID, 100, models.MethodStripe, models.PaymentTypeFull, models.PaymentConfirmed)
	if err := svc.FailPayment(confirmed.ID, "late report"); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("error = %v, want ErrAlreadyConfirmed", err)
	}
}

func TestDeletePayment(t *testing.T) {
	t.Run("confirmed payment not deletable", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 100)
		payment := createTestPayment(t, db, request.ID, 100, models.MethodCash, models.PaymentTypeFull, models.PaymentConfirmed)

		err := svc.DeletePayment(payment.ID, "admin@kamisoft.dev", false)
		if !errors.Is(err, ErrNotDeletable) {
			t.Fatalf("error = %v, want ErrNotDeletable", err)
		}
	})

	t.Run("soft delete records actor", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 100)
		payment := createTestPayment(t, db, request.ID, 100, models.MethodCash, models.PaymentTypeFull, models.PaymentFailed)

		if err := svc.DeletePayment(payment.ID, "admin@kamisoft.dev", false); err != nil {
			t.Fatalf("DeletePayment: %v", err)
		}
		got := reloadPayment(t, db, payment.ID)
		if got.PaymentStatus != models.PaymentDeleted {
			t.Errorf("status = %q, want deleted", got.PaymentStatus)
		}
		if got.DeletedBy != "admin@kamisoft.dev" || got.DeletedAt == nil {
			t.Errorf("deleted_by = %q, deleted_at = %v", got.DeletedBy, got.DeletedAt)
		}
	})

	t.Run("permanent delete purges row and audit trail", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewReconciliationService(db, nil)
		request := createTestRequest(t, db, 100)
		payment := createTestPayment(t, db, request.ID, 100, models.MethodCash, models.PaymentTypeFull, models.PaymentCancelled)
		db.Create(&models.PaymentAuditLog{PaymentID: payment.ID, Action: "manual_entry", Actor: "admin@kamisoft.dev"})

		if err := svc.DeletePayment(payment.ID, "admin@kamisoft.dev", true); err != nil {
			t.Fatalf("DeletePayment permanent: %v", err)
		}

		var count int64
		db.Model(&models.Payment{}).Where("id = ?", payment.ID).Count(&count)
		if count != 0 {
			t.Error("payment row still present after permanent delete")
		}
		db.Model(&models.PaymentAuditLog{}).Where("payment_id = ?", payment.ID).Count(&count)
		if count != 0 {
			t.Error("audit rows still present after permanent delete")
		}
	})
}

func TestVerifyReportedAmount(t *testing.T) {
	svc := NewReconciliationService(nil, nil)
	payment := &models.Payment{Amount: 100}

	tests := []struct {
		name     string
		reported float64
		wantErr  bool
	}{
		{"exact", 100, false},
		{"within tolerance", 100.005, false},
		{"under by a cent", 99.99, true},
		{"over", 110, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.VerifyReportedAmount(payment, tt.reported)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyReportedAmount(%v) error = %v, wantErr %v", tt.reported, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrAmountMismatch) {
				t.Errorf("error = %v, want ErrAmountMismatch", err)
			}
		})
	}
}
