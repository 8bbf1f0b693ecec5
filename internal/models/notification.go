package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationPaymentLinkIssued NotificationType = "payment_link_issued"
	NotificationPaymentConfirmed  NotificationType = "payment_confirmed"
	NotificationPaymentFailed     NotificationType = "payment_failed"
	NotificationPaymentCancelled  NotificationType = "payment_cancelled"
	NotificationRequestApproved   NotificationType = "request_approved"
)

type Notification struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	ClientID  uint              `json:"client_id" gorm:"not null;index"`
	Type      NotificationType  `json:"type" gorm:"type:varchar(50);not null"`
	Title     string            `json:"title" gorm:"type:varchar(255);not null"`
	Message   string            `json:"message" gorm:"type:text;not null"`
	IsRead    bool              `json:"is_read" gorm:"default:false;index"`
	Data      datatypes.JSONMap `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at"`
	ReadAt    *time.Time        `json:"read_at"`

	Client Client `json:"client,omitempty" gorm:"foreignKey:ClientID"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate hook
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return nil
}
