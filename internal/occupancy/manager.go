// Package occupancy owns the room/tenant assignment invariants: a room's
// occupant count never exceeds its capacity, and a tenant occupies at most
// one room. Every mutation of the room-tenant link goes through Manager.
package occupancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boardinghouse-service/internal/model"
	"boardinghouse-service/internal/validation"

	"gorm.io/gorm"
)

// ErrInvariantViolation reports a bidirectional mismatch between a room's
// tenant set and a tenant's room reference detected mid-transaction. The
// transaction is aborted rather than silently repaired, since a repair
// could mask data loss from a concurrent write.
var ErrInvariantViolation = errors.New("room/tenant occupancy invariant violated")

// Manager mediates every assignment and removal.
type Manager struct {
	db *gorm.DB
}

// NewManager returns a Manager backed by the given database handle.
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// AssignTenant links a tenant to a room, enforcing capacity, status and
// single-room exclusivity. All precondition failures are collected into the
// returned result rather than short-circuited, so the caller can show every
// problem at once. The room-side and tenant-side updates commit in a single
// transaction; a returned error means a system fault, not bad input.
func (m *Manager) AssignTenant(ctx context.Context, roomID, tenantID uint, leaseStart time.Time, leaseEnd *time.Time) (*validation.Result, error) {
	res := validation.NewResult()

	var room model.Room
	roomFound := true
	if err := m.db.WithContext(ctx).Preload("Tenants").First(&room, roomID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		roomFound = false
		res.Add("Room not found")
	}

	var tenant model.Tenant
	tenantFound := true
	if err := m.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		tenantFound = false
		res.Add("Tenant not found")
	}

	if roomFound {
		res.Require(room.IsActive, "Room is not active")
		res.Require(room.CurrentOccupancy < room.Capacity, "Room is at full capacity")
		// Status check is independent of the capacity arithmetic: a room
		// forced into maintenance rejects assignment even with free beds.
		res.Require(room.Status == model.RoomStatusAvailable,
			fmt.Sprintf("Room is not available for assignment (status: %s)", room.Status))
		for _, t := range room.Tenants {
			if t.ID == tenantID {
				res.Add("Tenant is already listed among the room's tenants")
				break
			}
		}
	}

	if tenantFound {
		res.Require(!tenant.Archived, "Tenant is archived and cannot be assigned")
		res.Require(tenant.RoomID == nil, "Tenant is already assigned to another room")
	}

	if !res.Valid {
		return res, nil
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guarded increment keeps the capacity invariant under concurrent
		// assignments: the row only updates while a bed is still free.
		claim := tx.Model(&model.Room{}).
			Where("id = ? AND current_occupancy < capacity AND status = ?", roomID, model.RoomStatusAvailable).
			UpdateColumn("current_occupancy", gorm.Expr("current_occupancy + 1"))
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return fmt.Errorf("%w: room %d filled concurrently", ErrInvariantViolation, roomID)
		}

		link := tx.Model(&model.Tenant{}).
			Where("id = ? AND room_id IS NULL", tenantID).
			Updates(map[string]interface{}{
				"room_id":     roomID,
				"lease_start": leaseStart,
				"lease_end":   leaseEnd,
			})
		if link.Error != nil {
			return link.Error
		}
		if link.RowsAffected == 0 {
			return fmt.Errorf("%w: tenant %d acquired a room concurrently", ErrInvariantViolation, tenantID)
		}

		var updated model.Room
		if err := tx.First(&updated, roomID).Error; err != nil {
			return err
		}
		if updated.CurrentOccupancy >= updated.Capacity {
			if err := tx.Model(&updated).UpdateColumn("status", model.RoomStatusOccupied).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// RemoveTenant unlinks a tenant from a room, releasing capacity and
// clearing the tenant's room reference and lease dates. Payment history is
// untouched; outstanding obligations stay attached to the tenant. A room
// manually placed in maintenance or unavailable keeps that status.
func (m *Manager) RemoveTenant(ctx context.Context, roomID, tenantID uint) (*validation.Result, error) {
	res := validation.NewResult()

	var room model.Room
	if err := m.db.WithContext(ctx).First(&room, roomID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		res.Add("Room not found")
	}

	var tenant model.Tenant
	if err := m.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		res.Add("Tenant not found")
	} else {
		res.Require(tenant.RoomID != nil && *tenant.RoomID == roomID,
			"Tenant is not assigned to this room")
	}

	if !res.Valid {
		return res, nil
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unlink := tx.Model(&model.Tenant{}).
			Where("id = ? AND room_id = ?", tenantID, roomID).
			Updates(map[string]interface{}{
				"room_id":     nil,
				"lease_start": nil,
				"lease_end":   nil,
			})
		if unlink.Error != nil {
			return unlink.Error
		}
		if unlink.RowsAffected == 0 {
			return fmt.Errorf("%w: tenant %d left room %d concurrently", ErrInvariantViolation, tenantID, roomID)
		}

		release := tx.Model(&model.Room{}).
			Where("id = ? AND current_occupancy > 0", roomID).
			UpdateColumn("current_occupancy", gorm.Expr("current_occupancy - 1"))
		if release.Error != nil {
			return release.Error
		}
		if release.RowsAffected == 0 {
			return fmt.Errorf("%w: room %d occupancy counter out of sync", ErrInvariantViolation, roomID)
		}

		var updated model.Room
		if err := tx.First(&updated, roomID).Error; err != nil {
			return err
		}
		// Only the occupied status is occupancy-derived; manual statuses
		// take precedence over the occupancy math.
		if updated.Status == model.RoomStatusOccupied && updated.CurrentOccupancy < updated.Capacity {
			if err := tx.Model(&updated).UpdateColumn("status", model.RoomStatusAvailable).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
