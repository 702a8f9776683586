package occupancy

import (
	"context"
	"fmt"
	"testing"
	"time"

	"boardinghouse-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Room{}, &model.Tenant{}, &model.Payment{}))
	return db
}

func makeRoom(t *testing.T, db *gorm.DB, number string, capacity int) *model.Room {
	t.Helper()
	room := &model.Room{
		RoomNumber:      number,
		Capacity:        capacity,
		Status:          model.RoomStatusAvailable,
		MonthlyRent:     decimal.NewFromInt(5000),
		SecurityDeposit: decimal.NewFromInt(10000),
		IsActive:        true,
	}
	require.NoError(t, db.Create(room).Error)
	return room
}

func makeTenant(t *testing.T, db *gorm.DB, name string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: name, Status: model.TenantStatusActive}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func leaseStart() time.Time {
	return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
}

func TestAssignTenant_Success(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	tenant := makeTenant(t, db, "Tenant A")

	res, err := m.AssignTenant(context.Background(), room.ID, tenant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	var gotRoom model.Room
	require.NoError(t, db.First(&gotRoom, room.ID).Error)
	assert.Equal(t, 1, gotRoom.CurrentOccupancy)
	assert.Equal(t, model.RoomStatusAvailable, gotRoom.Status)

	var gotTenant model.Tenant
	require.NoError(t, db.First(&gotTenant, tenant.ID).Error)
	require.NotNil(t, gotTenant.RoomID)
	assert.Equal(t, room.ID, *gotTenant.RoomID)
	require.NotNil(t, gotTenant.LeaseStart)
	assert.True(t, gotTenant.LeaseStart.Equal(leaseStart()))
}

func TestAssignTenant_FullRoomBecomesOccupied(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	a := makeTenant(t, db, "Tenant A")
	b := makeTenant(t, db, "Tenant B")

	res, err := m.AssignTenant(context.Background(), room.ID, a.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	res, err = m.AssignTenant(context.Background(), room.ID, b.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	var gotRoom model.Room
	require.NoError(t, db.First(&gotRoom, room.ID).Error)
	assert.Equal(t, 2, gotRoom.CurrentOccupancy)
	assert.Equal(t, model.RoomStatusOccupied, gotRoom.Status)
}

func TestAssignTenant_RejectsFullRoom(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	a := makeTenant(t, db, "Tenant A")
	b := makeTenant(t, db, "Tenant B")
	c := makeTenant(t, db, "Tenant C")

	for _, id := range []uint{a.ID, b.ID} {
		res, err := m.AssignTenant(context.Background(), room.ID, id, leaseStart(), nil)
		require.NoError(t, err)
		require.True(t, res.Valid)
	}

	res, err := m.AssignTenant(context.Background(), room.ID, c.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Room is at full capacity")

	// Tenant C must remain roomless
	var gotC model.Tenant
	require.NoError(t, db.First(&gotC, c.ID).Error)
	assert.Nil(t, gotC.RoomID)
}

func TestAssignTenant_RejectsAlreadyAssignedTenant(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room101 := makeRoom(t, db, "101", 2)
	room102 := makeRoom(t, db, "102", 2)
	tenant := makeTenant(t, db, "Tenant A")

	res, err := m.AssignTenant(context.Background(), room101.ID, tenant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	res, err = m.AssignTenant(context.Background(), room102.ID, tenant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Tenant is already assigned to another room")

	// Room 102 unaffected
	var got model.Room
	require.NoError(t, db.First(&got, room102.ID).Error)
	assert.Equal(t, 0, got.CurrentOccupancy)
	assert.Equal(t, model.RoomStatusAvailable, got.Status)
}

func TestAssignTenant_RejectsArchivedTenant(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	tenant := &model.Tenant{Name: "Archived", Status: model.TenantStatusInactive, Archived: true}
	require.NoError(t, db.Create(tenant).Error)

	res, err := m.AssignTenant(context.Background(), room.ID, tenant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Tenant is archived and cannot be assigned")
}

func TestAssignTenant_RejectsMaintenanceRoomWithFreeCapacity(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	require.NoError(t, db.Model(room).UpdateColumn("status", model.RoomStatusMaintenance).Error)
	tenant := makeTenant(t, db, "Tenant A")

	res, err := m.AssignTenant(context.Background(), room.ID, tenant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Room is not available for assignment (status: maintenance)")
}

func TestAssignTenant_RejectsInactiveRoom(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	require.NoError(t, db.Model(room).UpdateColumn("is_active", false).Error)
	tenant := makeTenant(t, db, "Tenant A")

	res, err := m.AssignTenant(context.Background(), room.ID, tenant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Room is not active")
}

func TestAssignTenant_CollectsAllFailures(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 1)
	occupant := makeTenant(t, db, "Occupant")
	res, err := m.AssignTenant(context.Background(), room.ID, occupant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	archived := &model.Tenant{Name: "Archived", Archived: true}
	require.NoError(t, db.Create(archived).Error)

	// Full room plus archived tenant: every failure is reported, not just
	// the first one hit.
	res, err = m.AssignTenant(context.Background(), room.ID, archived.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.GreaterOrEqual(t, len(res.Errors), 2)
	assert.Contains(t, res.Errors, "Room is at full capacity")
	assert.Contains(t, res.Errors, "Tenant is archived and cannot be assigned")
}

func TestAssignTenant_NotFound(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	res, err := m.AssignTenant(context.Background(), 999, 998, leaseStart(), nil)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Room not found")
	assert.Contains(t, res.Errors, "Tenant not found")
}

func TestRemoveTenant_RevertsOccupiedToAvailable(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	a := makeTenant(t, db, "Tenant A")
	b := makeTenant(t, db, "Tenant B")
	for _, id := range []uint{a.ID, b.ID} {
		res, err := m.AssignTenant(context.Background(), room.ID, id, leaseStart(), nil)
		require.NoError(t, err)
		require.True(t, res.Valid)
	}

	res, err := m.RemoveTenant(context.Background(), room.ID, b.ID)
	require.NoError(t, err)
	require.True(t, res.Valid)

	var gotRoom model.Room
	require.NoError(t, db.First(&gotRoom, room.ID).Error)
	assert.Equal(t, 1, gotRoom.CurrentOccupancy)
	assert.Equal(t, model.RoomStatusAvailable, gotRoom.Status)

	var gotB model.Tenant
	require.NoError(t, db.First(&gotB, b.ID).Error)
	assert.Nil(t, gotB.RoomID)
	assert.Nil(t, gotB.LeaseStart)
	assert.Nil(t, gotB.LeaseEnd)
}

func TestRemoveTenant_MaintenanceStatusTakesPrecedence(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 1)
	tenant := makeTenant(t, db, "Tenant A")
	res, err := m.AssignTenant(context.Background(), room.ID, tenant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	// Staff forces the room into maintenance while it is occupied
	require.NoError(t, db.Model(&model.Room{}).Where("id = ?", room.ID).
		UpdateColumn("status", model.RoomStatusMaintenance).Error)

	res, err = m.RemoveTenant(context.Background(), room.ID, tenant.ID)
	require.NoError(t, err)
	require.True(t, res.Valid)

	var gotRoom model.Room
	require.NoError(t, db.First(&gotRoom, room.ID).Error)
	assert.Equal(t, 0, gotRoom.CurrentOccupancy)
	assert.Equal(t, model.RoomStatusMaintenance, gotRoom.Status)
}

func TestRemoveTenant_RejectsTenantNotInRoom(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	tenant := makeTenant(t, db, "Tenant A")

	res, err := m.RemoveTenant(context.Background(), room.ID, tenant.ID)
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Tenant is not assigned to this room")
}

func TestRemoveTenant_KeepsPaymentHistory(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 2)
	tenant := makeTenant(t, db, "Tenant A")
	res, err := m.AssignTenant(context.Background(), room.ID, tenant.ID, leaseStart(), nil)
	require.NoError(t, err)
	require.True(t, res.Valid)

	payment := model.Payment{
		TenantID: tenant.ID,
		RoomID:   room.ID,
		Amount:   decimal.NewFromInt(5000),
		Type:     model.PaymentTypeRent,
		Status:   model.PaymentStatusPending,
		DueDate:  leaseStart(),
	}
	require.NoError(t, db.Create(&payment).Error)

	res, err = m.RemoveTenant(context.Background(), room.ID, tenant.ID)
	require.NoError(t, err)
	require.True(t, res.Valid)

	var count int64
	require.NoError(t, db.Model(&model.Payment{}).Where("tenant_id = ?", tenant.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCapacityInvariant_HoldsAcrossSequences(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db)

	room := makeRoom(t, db, "101", 3)
	var tenants []*model.Tenant
	for i := 0; i < 5; i++ {
		tenants = append(tenants, makeTenant(t, db, fmt.Sprintf("Tenant %d", i)))
	}

	checkInvariant := func() {
		var gotRoom model.Room
		require.NoError(t, db.First(&gotRoom, room.ID).Error)
		var linked int64
		require.NoError(t, db.Model(&model.Tenant{}).Where("room_id = ?", room.ID).Count(&linked).Error)
		assert.Equal(t, int64(gotRoom.CurrentOccupancy), linked)
		assert.LessOrEqual(t, gotRoom.CurrentOccupancy, gotRoom.Capacity)
	}

	// Assign all five (two must be rejected), then remove two, then
	// assign the rejected ones.
	for _, tenant := range tenants {
		_, err := m.AssignTenant(context.Background(), room.ID, tenant.ID, leaseStart(), nil)
		require.NoError(t, err)
		checkInvariant()
	}
	for _, tenant := range tenants[:2] {
		_, err := m.RemoveTenant(context.Background(), room.ID, tenant.ID)
		require.NoError(t, err)
		checkInvariant()
	}
	for _, tenant := range tenants[3:] {
		_, err := m.AssignTenant(context.Background(), room.ID, tenant.ID, leaseStart(), nil)
		require.NoError(t, err)
		checkInvariant()
	}
}
