package model

import (
	"time"

	"gorm.io/gorm"
)

// Announcement audiences
const (
	AudienceAll     = "all"
	AudienceTenants = "tenants"
	AudienceStaff   = "staff"
)

// Announcement is a notice published to the dashboards.
type Announcement struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	Title       string         `json:"title" gorm:"type:varchar(200);not null"`
	Body        string         `json:"body" gorm:"type:text"`
	Audience    string         `json:"audience" gorm:"type:varchar(20);not null;default:'all'"`
	PublishedAt time.Time      `json:"published_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	CreatedBy   uint           `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
