package ledger

import (
	"context"
	"testing"
	"time"

	"boardinghouse-service/internal/model"
	"boardinghouse-service/pkg/config"

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

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// makeAssignedTenant creates a room and a tenant linked to it, bypassing the
// occupancy manager since only the ledger is under test here.
func makeAssignedTenant(t *testing.T, db *gorm.DB, roomNumber string, rent int64, leaseStart time.Time) *model.Tenant {
	t.Helper()

	room := &model.Room{
		RoomNumber:       roomNumber,
		Capacity:         2,
		CurrentOccupancy: 1,
		Status:           model.RoomStatusAvailable,
		MonthlyRent:      decimal.NewFromInt(rent),
		SecurityDeposit:  decimal.NewFromInt(2 * rent),
		IsActive:         true,
	}
	require.NoError(t, db.Create(room).Error)

	tenant := &model.Tenant{
		Name:       "Tenant " + roomNumber,
		Status:     model.TenantStatusActive,
		RoomID:     &room.ID,
		LeaseStart: &leaseStart,
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func defaultLedger(db *gorm.DB) *Ledger {
	return New(db, &config.BillingConfig{DueDay: 0, GraceDays: 90})
}

func TestGenerateMonthlyObligations_CreatesPendingRent(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	tenant := makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 5))

	created, err := l.GenerateMonthlyObligations(context.Background(), date(2025, time.November, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)

	payment := created[0]
	assert.Equal(t, tenant.ID, payment.TenantID)
	assert.Equal(t, model.PaymentTypeRent, payment.Type)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(5000)), "amount = %s", payment.Amount)
	// Due on the lease anniversary day within the period month
	assert.True(t, payment.DueDate.Equal(date(2025, time.November, 5)), "due = %s", payment.DueDate)
	require.NotNil(t, payment.PeriodStart)
	assert.True(t, payment.PeriodStart.Equal(date(2025, time.November, 1)))
	require.NotNil(t, payment.PeriodEnd)
	assert.True(t, payment.PeriodEnd.Equal(date(2025, time.November, 30)))
}

func TestGenerateMonthlyObligations_Idempotent(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 5))

	created, err := l.GenerateMonthlyObligations(context.Background(), date(2025, time.November, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)

	// Rerunning for the same month is a no-op, not an error
	created, err = l.GenerateMonthlyObligations(context.Background(), date(2025, time.November, 15))
	require.NoError(t, err)
	assert.Len(t, created, 0)

	var count int64
	require.NoError(t, db.Model(&model.Payment{}).Where("type = ?", model.PaymentTypeRent).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A different month generates again
	created, err = l.GenerateMonthlyObligations(context.Background(), date(2025, time.December, 1))
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestGenerateMonthlyObligations_UsesRentOverride(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	tenant := makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 5))
	override := decimal.NewFromInt(4200)
	require.NoError(t, db.Model(tenant).UpdateColumn("monthly_rent_override", override).Error)

	created, err := l.GenerateMonthlyObligations(context.Background(), date(2025, time.November, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, created[0].Amount.Equal(override), "amount = %s", created[0].Amount)
}

func TestGenerateMonthlyObligations_SkipsIneligibleTenants(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	// Unassigned tenant
	require.NoError(t, db.Create(&model.Tenant{Name: "Roomless", Status: model.TenantStatusActive}).Error)

	// Inactive tenant with a room
	inactive := makeAssignedTenant(t, db, "102", 5000, date(2025, time.March, 5))
	require.NoError(t, db.Model(inactive).UpdateColumn("status", model.TenantStatusInactive).Error)

	// Archived tenant with a room
	archived := makeAssignedTenant(t, db, "103", 5000, date(2025, time.March, 5))
	require.NoError(t, db.Model(archived).UpdateColumn("archived", true).Error)

	created, err := l.GenerateMonthlyObligations(context.Background(), date(2025, time.November, 1))
	require.NoError(t, err)
	assert.Len(t, created, 0)
}

func TestGenerateMonthlyObligations_ClampsAnniversaryDay(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	makeAssignedTenant(t, db, "101", 5000, date(2025, time.January, 31))

	created, err := l.GenerateMonthlyObligations(context.Background(), date(2025, time.February, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, created[0].DueDate.Equal(date(2025, time.February, 28)), "due = %s", created[0].DueDate)
}

func TestGenerateMonthlyObligations_ConfiguredDueDay(t *testing.T) {
	db := setupDB(t)
	l := New(db, &config.BillingConfig{DueDay: 5, GraceDays: 90})

	makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 20))

	created, err := l.GenerateMonthlyObligations(context.Background(), date(2025, time.November, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, created[0].DueDate.Equal(date(2025, time.November, 5)), "due = %s", created[0].DueDate)
}

func makePayment(t *testing.T, db *gorm.DB, tenantID uint, status string, due time.Time) *model.Payment {
	t.Helper()
	payment := &model.Payment{
		TenantID: tenantID,
		RoomID:   1,
		Amount:   decimal.NewFromInt(5000),
		Type:     model.PaymentTypeRent,
		Status:   status,
		DueDate:  due,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestMarkAsPaid_CashWithoutReference(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	payment := makePayment(t, db, 1, model.PaymentStatusPending, date(2025, time.November, 5))

	res, err := l.MarkAsPaid(context.Background(), payment.ID, date(2025, time.November, 10), model.PaymentMethodCash, "", "paid at front desk")
	require.NoError(t, err)
	require.True(t, res.Valid, "errors: %v", res.Errors)

	var got model.Payment
	require.NoError(t, db.First(&got, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusPaid, got.Status)
	require.NotNil(t, got.PaymentDate)
	assert.True(t, got.PaymentDate.Equal(date(2025, time.November, 10)))
	assert.Equal(t, model.PaymentMethodCash, got.Method)
	assert.Equal(t, "paid at front desk", got.Notes)

	// Paid is terminal: effective status ignores the due date from here on
	assert.Equal(t, model.PaymentStatusPaid, EffectiveStatus(&got, date(2030, time.January, 1)))
}

func TestMarkAsPaid_RequiresReferenceForNonCash(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	payment := makePayment(t, db, 1, model.PaymentStatusPending, date(2025, time.November, 5))

	res, err := l.MarkAsPaid(context.Background(), payment.ID, date(2025, time.November, 10), model.PaymentMethodBankTransfer, "", "")
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Transaction reference is required for non-cash payments")

	// A reference satisfies it
	res, err = l.MarkAsPaid(context.Background(), payment.ID, date(2025, time.November, 10), model.PaymentMethodBankTransfer, "TXN-123", "")
	require.NoError(t, err)
	require.True(t, res.Valid)

	var got model.Payment
	require.NoError(t, db.First(&got, payment.ID).Error)
	require.NotNil(t, got.TransactionRef)
	assert.Equal(t, "TXN-123", *got.TransactionRef)
}

func TestMarkAsPaid_RejectsAlreadyPaid(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	payment := makePayment(t, db, 1, model.PaymentStatusPending, date(2025, time.November, 5))

	res, err := l.MarkAsPaid(context.Background(), payment.ID, date(2025, time.November, 10), model.PaymentMethodCash, "", "")
	require.NoError(t, err)
	require.True(t, res.Valid)

	res, err = l.MarkAsPaid(context.Background(), payment.ID, date(2025, time.November, 11), model.PaymentMethodCash, "", "")
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Payment is already marked as paid")
}

func TestMarkAsPaid_RejectsUnknownMethod(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	payment := makePayment(t, db, 1, model.PaymentStatusPending, date(2025, time.November, 5))

	res, err := l.MarkAsPaid(context.Background(), payment.ID, date(2025, time.November, 10), "barter", "", "")
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Unknown payment method: barter")
}

func TestMarkAsPaid_RejectsDateBeforeGraceWindow(t *testing.T) {
	db := setupDB(t)
	l := New(db, &config.BillingConfig{GraceDays: 30})

	payment := makePayment(t, db, 1, model.PaymentStatusPending, date(2025, time.November, 5))

	res, err := l.MarkAsPaid(context.Background(), payment.ID, date(2025, time.September, 1), model.PaymentMethodCash, "", "")
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Payment date is more than 30 days before the due date")

	// Future dates are allowed; only implausible backdating is rejected
	res, err = l.MarkAsPaid(context.Background(), payment.ID, date(2026, time.June, 1), model.PaymentMethodCash, "", "")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestMarkAsPaid_NotFound(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	res, err := l.MarkAsPaid(context.Background(), 999, date(2025, time.November, 10), model.PaymentMethodCash, "", "")
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Payment not found")
}

func TestEffectiveStatus(t *testing.T) {
	due := date(2025, time.November, 5)
	tests := []struct {
		name   string
		status string
		today  time.Time
		want   string
	}{
		{"pending before due date", model.PaymentStatusPending, date(2025, time.November, 1), model.PaymentStatusPending},
		{"pending on due date", model.PaymentStatusPending, due, model.PaymentStatusPending},
		{"pending past due date", model.PaymentStatusPending, date(2025, time.November, 10), model.PaymentStatusOverdue},
		{"due past due date", model.PaymentStatusDue, date(2025, time.November, 10), model.PaymentStatusOverdue},
		{"paid never overdue", model.PaymentStatusPaid, date(2030, time.January, 1), model.PaymentStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := &model.Payment{Status: tt.status, DueDate: due}
			assert.Equal(t, tt.want, EffectiveStatus(payment, tt.today))
		})
	}
}

func TestBackfillDeposits(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	tenant := makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 5))

	created, err := l.BackfillDeposits(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 1)

	deposit := created[0]
	assert.Equal(t, tenant.ID, deposit.TenantID)
	assert.Equal(t, model.PaymentTypeDeposit, deposit.Type)
	assert.True(t, deposit.Amount.Equal(decimal.NewFromInt(10000)), "amount = %s", deposit.Amount)
	assert.True(t, deposit.DueDate.Equal(date(2025, time.March, 5)))

	// Deposits are one-time: a rerun creates nothing
	created, err = l.BackfillDeposits(context.Background())
	require.NoError(t, err)
	assert.Len(t, created, 0)
}

func TestBackfillDeposits_SkipsZeroDepositRooms(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	tenant := makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 5))
	require.NoError(t, db.Model(&model.Room{}).Where("id = ?", *tenant.RoomID).
		UpdateColumn("security_deposit", decimal.Zero).Error)

	created, err := l.BackfillDeposits(context.Background())
	require.NoError(t, err)
	assert.Len(t, created, 0)
}

func TestSummarizeTenant(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	tenant := makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 5))
	today := date(2025, time.November, 10)

	// Paid October rent
	october := makePayment(t, db, tenant.ID, model.PaymentStatusPending, date(2025, time.October, 5))
	res, err := l.MarkAsPaid(context.Background(), october.ID, date(2025, time.October, 5), model.PaymentMethodCash, "", "")
	require.NoError(t, err)
	require.True(t, res.Valid)

	// Overdue November rent (due date passed, still pending)
	makePayment(t, db, tenant.ID, model.PaymentStatusPending, date(2025, time.November, 5))

	// Upcoming December rent
	makePayment(t, db, tenant.ID, model.PaymentStatusPending, date(2025, time.December, 5))

	// Pending deposit
	deposits, err := l.BackfillDeposits(context.Background())
	require.NoError(t, err)
	require.Len(t, deposits, 1)

	summary, err := l.SummarizeTenant(context.Background(), tenant.ID, today)
	require.NoError(t, err)

	assert.True(t, summary.TotalAmount.Equal(decimal.NewFromInt(25000)), "total = %s", summary.TotalAmount)
	assert.True(t, summary.PaidAmount.Equal(decimal.NewFromInt(5000)), "paid = %s", summary.PaidAmount)
	// November rent and the March-due deposit are both past due
	assert.True(t, summary.OverdueAmount.Equal(decimal.NewFromInt(15000)), "overdue = %s", summary.OverdueAmount)
	assert.True(t, summary.PendingAmount.Equal(decimal.NewFromInt(5000)), "pending = %s", summary.PendingAmount)
	assert.Equal(t, 1, summary.CountByStatus[model.PaymentStatusPaid])
	assert.Equal(t, 2, summary.CountByStatus[model.PaymentStatusOverdue])
	assert.Equal(t, 1, summary.CountByStatus[model.PaymentStatusPending])
	assert.Equal(t, model.PaymentStatusPending, summary.DepositStatus)
}

func TestSummarizeTenant_DepositStatus(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	tenant := makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 5))
	today := date(2025, time.November, 10)

	// No deposit on record at all
	summary, err := l.SummarizeTenant(context.Background(), tenant.ID, today)
	require.NoError(t, err)
	assert.Equal(t, "none", summary.DepositStatus)

	deposits, err := l.BackfillDeposits(context.Background())
	require.NoError(t, err)
	require.Len(t, deposits, 1)

	summary, err = l.SummarizeTenant(context.Background(), tenant.ID, today)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, summary.DepositStatus)

	res, err := l.MarkAsPaid(context.Background(), deposits[0].ID, date(2025, time.March, 5), model.PaymentMethodCash, "", "")
	require.NoError(t, err)
	require.True(t, res.Valid)

	summary, err = l.SummarizeTenant(context.Background(), tenant.ID, today)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, summary.DepositStatus)
}

func TestSummarizePeriod(t *testing.T) {
	db := setupDB(t)
	l := defaultLedger(db)

	a := makeAssignedTenant(t, db, "101", 5000, date(2025, time.March, 5))
	b := makeAssignedTenant(t, db, "102", 6000, date(2025, time.April, 1))

	nov := makePayment(t, db, a.ID, model.PaymentStatusPending, date(2025, time.November, 5))
	res, err := l.MarkAsPaid(context.Background(), nov.ID, date(2025, time.November, 5), model.PaymentMethodCash, "", "")
	require.NoError(t, err)
	require.True(t, res.Valid)

	makePayment(t, db, b.ID, model.PaymentStatusPending, date(2025, time.November, 1))
	// Outside the period
	makePayment(t, db, b.ID, model.PaymentStatusPending, date(2025, time.December, 1))

	summary, err := l.SummarizePeriod(context.Background(),
		date(2025, time.November, 1), date(2025, time.November, 30), date(2025, time.November, 10))
	require.NoError(t, err)

	assert.True(t, summary.TotalAmount.Equal(decimal.NewFromInt(10000)), "total = %s", summary.TotalAmount)
	assert.Equal(t, 1, summary.CountByStatus[model.PaymentStatusPaid])
	assert.Equal(t, 1, summary.CountByStatus[model.PaymentStatusOverdue])
}
