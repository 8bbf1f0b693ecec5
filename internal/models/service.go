package models

import (
	"time"

	"gorm.io/gorm"
)

// Service is a catalog entry shown on the public site.
type Service struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	BasePrice     *float64       `json:"base_price,omitempty"`
	ImageURL      string         `gorm:"type:text" json:"image_url,omitempty"`
	ImagePublicID string         `gorm:"type:text" json:"image_public_id,omitempty"`
	IsPublished   bool           `gorm:"default:true" json:"is_published"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Service) TableName() string {
	return "services"
}
