package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a back-office account. The public site has no user accounts;
// clients are tracked separately in the clients table.
type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	FullName      string         `gorm:"not null" json:"full_name"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Password      string         `gorm:"not null" json:"-"`
	Role          string         `gorm:"default:'admin'" json:"role"`
	IsSuspended   bool           `gorm:"default:false" json:"is_suspended"`
	SuspendedAt   *time.Time     `json:"suspended_at,omitempty"`
	SuspendReason string         `gorm:"type:text" json:"suspend_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to set default role
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = "admin"
	}
	return nil
}

// IsAdmin checks if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
