package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tenant statuses
const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
	TenantStatusPending  = "pending"
)

// Tenant represents a registered boarder. RoomID and the lease dates
// are set and cleared only by the occupancy manager.
type Tenant struct {
	ID                  uint             `json:"id" gorm:"primarykey"`
	Name                string           `json:"name" gorm:"type:varchar(120);not null"`
	Email               string           `json:"email" gorm:"type:varchar(255);index"`
	Phone               string           `json:"phone" gorm:"type:varchar(30)"`
	EmergencyContact    string           `json:"emergency_contact" gorm:"type:varchar(255)"`
	Status              string           `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Archived            bool             `json:"archived" gorm:"not null;default:false"`
	RoomID              *uint            `json:"room_id,omitempty" gorm:"index"`
	LeaseStart          *time.Time       `json:"lease_start,omitempty"`
	LeaseEnd            *time.Time       `json:"lease_end,omitempty"`
	MonthlyRentOverride *decimal.Decimal `json:"monthly_rent_override,omitempty" gorm:"type:decimal(12,2)"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`
}
