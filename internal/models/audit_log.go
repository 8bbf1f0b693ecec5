package models

import "time"

// PaymentAuditLog records one transition or admin action against a payment.
// Writes are best-effort: a failed insert never fails the primary operation.
type PaymentAuditLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	PaymentID uint      `gorm:"not null;index" json:"payment_id"`
	Action    string    `gorm:"type:varchar(50);not null" json:"action"`
	Actor     string    `gorm:"type:varchar(100)" json:"actor,omitempty"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (PaymentAuditLog) TableName() string {
	return "payment_audit_logs"
}
