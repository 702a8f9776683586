package model

import (
	"time"

	"gorm.io/gorm"
)

// Maintenance report priorities
const (
	ReportPriorityLow    = "low"
	ReportPriorityMedium = "medium"
	ReportPriorityHigh   = "high"
	ReportPriorityUrgent = "urgent"
)

// Maintenance report statuses
const (
	ReportStatusOpen       = "open"
	ReportStatusInProgress = "in_progress"
	ReportStatusResolved   = "resolved"
)

// MaintenanceReport represents an issue filed against a room, usually by
// the tenant living in it. Resolving a report stamps the room's
// last-maintenance date.
type MaintenanceReport struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	RoomID      uint           `json:"room_id" gorm:"not null;index"`
	TenantID    *uint          `json:"tenant_id,omitempty" gorm:"index"`
	Title       string         `json:"title" gorm:"type:varchar(200);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Priority    string         `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'open'"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// ValidReportStatuses are the accepted maintenance report states
var ValidReportStatuses = map[string]bool{
	ReportStatusOpen:       true,
	ReportStatusInProgress: true,
	ReportStatusResolved:   true,
}
