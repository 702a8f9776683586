package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Room statuses
const (
	RoomStatusAvailable   = "available"
	RoomStatusOccupied    = "occupied"
	RoomStatusMaintenance = "maintenance"
	RoomStatusUnavailable = "unavailable"
)

// Room represents a boarding-house room and its occupancy state.
// CurrentOccupancy and Status are mutated only through the occupancy
// manager's assign/remove operations, never edited directly.
type Room struct {
	ID                  uint            `json:"id" gorm:"primarykey"`
	RoomNumber          string          `json:"room_number" gorm:"type:varchar(20);unique;not null"`
	Floor               string          `json:"floor" gorm:"type:varchar(10)"`
	Description         string          `json:"description" gorm:"type:text"`
	Capacity            int             `json:"capacity" gorm:"not null"`
	CurrentOccupancy    int             `json:"current_occupancy" gorm:"not null;default:0"`
	Status              string          `json:"status" gorm:"type:varchar(20);not null;default:'available'"`
	MonthlyRent         decimal.Decimal `json:"monthly_rent" gorm:"type:decimal(12,2);not null"`
	SecurityDeposit     decimal.Decimal `json:"security_deposit" gorm:"type:decimal(12,2);not null"`
	IsActive            bool            `json:"is_active" gorm:"default:true"`
	LastMaintenanceDate *time.Time      `json:"last_maintenance_date,omitempty"`
	NextMaintenanceDate *time.Time      `json:"next_maintenance_date,omitempty"`
	Tenants             []Tenant        `json:"tenants,omitempty" gorm:"foreignKey:RoomID"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}
