package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string
type PaymentMethod string
type PaymentType string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSuccess    PaymentStatus = "success"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentConfirmed  PaymentStatus = "confirmed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentDeclined   PaymentStatus = "declined"
	PaymentExpired    PaymentStatus = "expired"
	PaymentDeleted    PaymentStatus = "deleted"
)

const (
	MethodPaystack     PaymentMethod = "paystack"
	MethodStripe       PaymentMethod = "stripe"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCrypto       PaymentMethod = "crypto"
	MethodCash         PaymentMethod = "cash"
	MethodCheque       PaymentMethod = "cheque"
	MethodOther        PaymentMethod = "other"
)

const (
	PaymentTypeFull  PaymentType = "full"
	PaymentTypeSplit PaymentType = "split"
)

// Payment is one payment attempt against a service request. A request may
// carry several rows under the split-payment policy; payment_sequence is
// 1-based per request.
type Payment struct {
	ID              uint `gorm:"primarykey" json:"id"`
	RequestID       uint `gorm:"not null;index" json:"request_id"`
	PaymentSequence int  `gorm:"not null;default:1" json:"payment_sequence"`

	Amount           float64       `gorm:"not null" json:"amount"`
	Currency         string        `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	PaymentMethod    PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentType      PaymentType   `gorm:"type:varchar(10);not null;default:'full'" json:"payment_type"`
	IsPartialPayment bool          `gorm:"default:false" json:"is_partial_payment"`
	TotalAmountDue   float64       `json:"total_amount_due"`

	// "confirmed" is the only terminal success state; success/completed are
	// provider-reported states awaiting promotion.
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`

	// Provenance. At most one cluster populated, selected by payment_method.
	PaystackReference     string `gorm:"type:varchar(100);index" json:"paystack_reference,omitempty"`
	StripePaymentIntentID string `gorm:"type:varchar(100);index" json:"stripe_payment_intent_id,omitempty"`
	CryptoTransactionHash string `gorm:"type:varchar(128);uniqueIndex:idx_payments_tx_hash,where:crypto_transaction_hash <> ''" json:"crypto_transaction_hash,omitempty"`
	CryptoAddress         string `gorm:"type:varchar(128)" json:"crypto_address,omitempty"`
	CryptoNetwork         string `gorm:"type:varchar(32)" json:"crypto_network,omitempty"`
	CryptoAmount          float64 `json:"crypto_amount,omitempty"`
	CryptoSymbol          string  `gorm:"type:varchar(16)" json:"crypto_symbol,omitempty"`

	AdminNotes   string `gorm:"type:text" json:"admin_notes,omitempty"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedBy string     `gorm:"type:varchar(100)" json:"confirmed_by,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedBy   string     `gorm:"type:varchar(100)" json:"deleted_by,omitempty"`

	ManualEntry   bool `gorm:"default:false" json:"manual_entry"`
	AdminVerified bool `gorm:"default:false" json:"admin_verified"`

	// Raw provider payloads and correlation ids. Core logic only reads
	// provider-specific sub-keys, never the whole blob.
	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Request ServiceRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsTerminal reports whether no further transition applies to this row.
func (p *Payment) IsTerminal() bool {
	return p.PaymentStatus == PaymentConfirmed || p.PaymentStatus == PaymentDeleted
}

// Approvable statuses for admin promotion to confirmed.
func (p *Payment) IsApprovable() bool {
	switch p.PaymentStatus {
	case PaymentSuccess, PaymentCompleted, PaymentPending, PaymentProcessing:
		return true
	default:
		return false
	}
}

// Deletable statuses, shared by soft and hard delete.
func (p *Payment) IsDeletable() bool {
	switch p.PaymentStatus {
	case PaymentFailed, PaymentCancelled, PaymentPending, PaymentProcessing:
		return true
	default:
		return false
	}
}
