package occupancy

import (
	"math"
	"time"

	"boardinghouse-service/internal/model"
)

// CapacityStatus is a derived view of a room's occupancy relative to
// its capacity. It is computed on demand and never persisted.
type CapacityStatus struct {
	Current             int     `json:"current"`
	Capacity            int     `json:"capacity"`
	Remaining           int     `json:"remaining"`
	OccupancyRate       float64 `json:"occupancy_rate"`
	IsFull              bool    `json:"is_full"`
	IsEmpty             bool    `json:"is_empty"`
	IsPartiallyOccupied bool    `json:"is_partially_occupied"`
}

// MaintenanceStatus is a derived view of a room's maintenance schedule.
type MaintenanceStatus struct {
	NeedsMaintenance         bool `json:"needs_maintenance"`
	IsOverdue                bool `json:"is_overdue"`
	DaysUntilMaintenance     *int `json:"days_until_maintenance,omitempty"`
	DaysSinceLastMaintenance *int `json:"days_since_last_maintenance,omitempty"`
}

// ComputeCapacityStatus derives the capacity view for a room. A zero
// capacity yields a zero occupancy rate rather than a division by zero,
// and such a room is never reported full.
func ComputeCapacityStatus(room *model.Room) CapacityStatus {
	status := CapacityStatus{
		Current:  room.CurrentOccupancy,
		Capacity: room.Capacity,
	}

	if remaining := room.Capacity - room.CurrentOccupancy; remaining > 0 {
		status.Remaining = remaining
	}

	if room.Capacity > 0 {
		rate := float64(room.CurrentOccupancy) / float64(room.Capacity) * 100
		status.OccupancyRate = math.Round(rate*100) / 100
		status.IsFull = room.CurrentOccupancy >= room.Capacity
	}

	status.IsEmpty = room.CurrentOccupancy == 0
	status.IsPartiallyOccupied = room.CurrentOccupancy > 0 && !status.IsFull

	return status
}

// ComputeMaintenanceStatus derives the maintenance view for a room as of
// the given date. The date is injected rather than read from the clock so
// the derivation stays deterministic.
func ComputeMaintenanceStatus(room *model.Room, today time.Time) MaintenanceStatus {
	status := MaintenanceStatus{
		NeedsMaintenance: room.Status == model.RoomStatusMaintenance,
	}

	if room.NextMaintenanceDate != nil {
		until := int(math.Ceil(room.NextMaintenanceDate.Sub(today).Hours() / 24))
		status.DaysUntilMaintenance = &until
		if until < 0 {
			status.IsOverdue = true
			status.NeedsMaintenance = true
		}
	}

	if room.LastMaintenanceDate != nil {
		since := int(math.Floor(today.Sub(*room.LastMaintenanceDate).Hours() / 24))
		status.DaysSinceLastMaintenance = &since
	}

	return status
}
