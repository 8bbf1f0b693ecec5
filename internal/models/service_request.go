package models

import (
	"time"
)

type RequestStatus string
type PartialPaymentStatus string

const (
	RequestPending       RequestStatus = "pending"
	RequestApproved      RequestStatus = "approved"
	RequestPartiallyPaid RequestStatus = "partially_paid"
	RequestPaid          RequestStatus = "paid"
	RequestPaidInFull    RequestStatus = "paid_in_full"
	RequestInProgress    RequestStatus = "in_progress"
	RequestConfirmed     RequestStatus = "confirmed"
	RequestCompleted     RequestStatus = "completed"
	RequestCancelled     RequestStatus = "cancelled"
)

const (
	PartialNone      PartialPaymentStatus = "none"
	PartialFirstPaid PartialPaymentStatus = "first_paid"
	PartialCompleted PartialPaymentStatus = "completed"
)

// ServiceRequest is a client's engagement with the studio. Its payment fields
// (total_paid, balance_due, partial_payment_status) are derived state owned by
// the reconciliation service; handlers never write them directly.
type ServiceRequest struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	ClientID  uint   `gorm:"not null;index" json:"client_id"`
	ServiceID *uint  `gorm:"index" json:"service_id,omitempty"`
	Title     string `gorm:"type:varchar(255);not null" json:"title"`
	Details   string `gorm:"type:text" json:"details,omitempty"`

	EstimatedCost        *float64             `json:"estimated_cost,omitempty"`
	TotalPaid            float64              `gorm:"default:0" json:"total_paid"`
	BalanceDue           float64              `gorm:"default:0" json:"balance_due"`
	PartialPaymentStatus PartialPaymentStatus `gorm:"type:varchar(20);not null;default:'none'" json:"partial_payment_status"`

	Status RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Set and not yet elapsed means an active payment link exists.
	PaymentLinkExpiry *time.Time `json:"payment_link_expiry,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client   Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Payments []Payment `gorm:"foreignKey:RequestID" json:"payments,omitempty"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}

// HasActiveLink reports whether a payment link exists and has not elapsed.
func (r *ServiceRequest) HasActiveLink(now time.Time) bool {
	return r.PaymentLinkExpiry != nil && now.Before(*r.PaymentLinkExpiry)
}
