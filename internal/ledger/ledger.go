// Package ledger owns the recurring obligation schedule per tenant: monthly
// rent generation, one-time deposits, the paid transition and summary views.
// "Overdue" is derived at read time from the due date, never stored, so no
// background sweep is needed to keep statuses honest.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boardinghouse-service/internal/model"
	"boardinghouse-service/internal/validation"
	"boardinghouse-service/pkg/config"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger maintains the payment schedule for all tenants.
type Ledger struct {
	db        *gorm.DB
	dueDay    int // 0 means lease anniversary day
	graceDays int
}

// New returns a Ledger applying the given billing policy.
func New(db *gorm.DB, billing *config.BillingConfig) *Ledger {
	l := &Ledger{db: db, graceDays: 90}
	if billing != nil {
		l.dueDay = billing.DueDay
		if billing.GraceDays > 0 {
			l.graceDays = billing.GraceDays
		}
	}
	return l
}

// GenerateMonthlyObligations creates one pending rent obligation per active,
// room-assigned tenant for the calendar month containing asOf. Idempotency
// comes from the unique (tenant, type, period start) index, not from a
// read-then-write check, so concurrent runs cannot double-bill: inserts that
// hit the constraint are skipped as expected no-ops. The created obligations
// are returned.
func (l *Ledger) GenerateMonthlyObligations(ctx context.Context, asOf time.Time) ([]model.Payment, error) {
	periodStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, -1)

	var tenants []model.Tenant
	err := l.db.WithContext(ctx).
		Where("status = ? AND archived = ? AND room_id IS NOT NULL", model.TenantStatusActive, false).
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}

	var created []model.Payment
	for _, tenant := range tenants {
		var room model.Room
		if err := l.db.WithContext(ctx).First(&room, *tenant.RoomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("tenant %d references missing room %d", tenant.ID, *tenant.RoomID)
			}
			return nil, err
		}

		// Amount is fixed at creation time; later rent changes never
		// touch obligations already on the books.
		amount := room.MonthlyRent
		if tenant.MonthlyRentOverride != nil {
			amount = *tenant.MonthlyRentOverride
		}

		ps := periodStart
		pe := periodEnd
		payment := model.Payment{
			TenantID:    tenant.ID,
			RoomID:      room.ID,
			Amount:      amount,
			Type:        model.PaymentTypeRent,
			Status:      model.PaymentStatusPending,
			DueDate:     l.dueDate(&tenant, periodStart),
			PeriodStart: &ps,
			PeriodEnd:   &pe,
		}

		insert := l.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "type"},
				{Name: "period_start"},
			},
			DoNothing: true,
		}).Create(&payment)
		if insert.Error != nil {
			return nil, insert.Error
		}
		if insert.RowsAffected > 0 {
			created = append(created, payment)
		}
	}

	return created, nil
}

// BackfillDeposits creates the missing one-time deposit obligation for every
// active, room-assigned tenant with a lease on record. Tenants whose room
// carries no deposit, or who already have a deposit obligation, are skipped.
// Used once when deposits predate the feature, and safe to rerun.
func (l *Ledger) BackfillDeposits(ctx context.Context) ([]model.Payment, error) {
	var tenants []model.Tenant
	err := l.db.WithContext(ctx).
		Where("archived = ? AND room_id IS NOT NULL AND lease_start IS NOT NULL", false).
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}

	var created []model.Payment
	for _, tenant := range tenants {
		var room model.Room
		if err := l.db.WithContext(ctx).First(&room, *tenant.RoomID).Error; err != nil {
			return nil, err
		}
		if room.SecurityDeposit.IsZero() {
			continue
		}

		var existing int64
		err := l.db.WithContext(ctx).Model(&model.Payment{}).
			Where("tenant_id = ? AND type = ?", tenant.ID, model.PaymentTypeDeposit).
			Count(&existing).Error
		if err != nil {
			return nil, err
		}
		if existing > 0 {
			continue
		}

		ps := *tenant.LeaseStart
		payment := model.Payment{
			TenantID:    tenant.ID,
			RoomID:      room.ID,
			Amount:      room.SecurityDeposit,
			Type:        model.PaymentTypeDeposit,
			Status:      model.PaymentStatusPending,
			DueDate:     *tenant.LeaseStart,
			PeriodStart: &ps,
		}

		insert := l.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "type"},
				{Name: "period_start"},
			},
			DoNothing: true,
		}).Create(&payment)
		if insert.Error != nil {
			return nil, insert.Error
		}
		if insert.RowsAffected > 0 {
			created = append(created, payment)
		}
	}

	return created, nil
}

// MarkAsPaid records payment of an obligation. The transition is terminal:
// a paid payment is never reverted here, and a concurrent double-pay loses
// the race on the guarded update. Transaction references are required for
// every method except cash. The payment date may not fall more than the
// configured grace window before the due date; no future-date ceiling is
// enforced (late data entry for payments received earlier is routine).
func (l *Ledger) MarkAsPaid(ctx context.Context, paymentID uint, paidAt time.Time, method, transactionRef, notes string) (*validation.Result, error) {
	res := validation.NewResult()

	var payment model.Payment
	if err := l.db.WithContext(ctx).First(&payment, paymentID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		res.Add("Payment not found")
		return res, nil
	}

	if payment.Status == model.PaymentStatusPaid {
		res.Add("Payment is already marked as paid")
	}
	if !model.ValidPaymentMethods[method] {
		res.Add(fmt.Sprintf("Unknown payment method: %s", method))
	}
	if method != model.PaymentMethodCash && transactionRef == "" {
		res.Add("Transaction reference is required for non-cash payments")
	}
	if paidAt.IsZero() {
		res.Add("Payment date is required")
	} else if paidAt.Before(payment.DueDate.AddDate(0, 0, -l.graceDays)) {
		res.Add(fmt.Sprintf("Payment date is more than %d days before the due date", l.graceDays))
	}

	if !res.Valid {
		return res, nil
	}

	updates := map[string]interface{}{
		"status":       model.PaymentStatusPaid,
		"payment_date": paidAt,
		"method":       method,
		"notes":        notes,
	}
	if transactionRef != "" {
		updates["transaction_ref"] = transactionRef
	}

	update := l.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status <> ?", paymentID, model.PaymentStatusPaid).
		Updates(updates)
	if update.Error != nil {
		return nil, update.Error
	}
	if update.RowsAffected == 0 {
		res.Add("Payment is already marked as paid")
	}

	return res, nil
}

// EffectiveStatus derives a payment's status as of the given date. Paid is
// terminal regardless of dates; an unpaid obligation past its due date reads
// as overdue without any stored transition.
func EffectiveStatus(payment *model.Payment, today time.Time) string {
	if payment.Status == model.PaymentStatusPaid {
		return model.PaymentStatusPaid
	}
	if today.After(payment.DueDate) {
		return model.PaymentStatusOverdue
	}
	return payment.Status
}

// dueDate places the rent due date within the period month: the configured
// day-of-month when set, otherwise the tenant's lease anniversary day, in
// both cases clamped to the days in the month.
func (l *Ledger) dueDate(tenant *model.Tenant, periodStart time.Time) time.Time {
	day := l.dueDay
	if day <= 0 {
		day = 1
		if tenant.LeaseStart != nil {
			day = tenant.LeaseStart.Day()
		}
	}

	daysInMonth := periodStart.AddDate(0, 1, -1).Day()
	if day > daysInMonth {
		day = daysInMonth
	}

	return time.Date(periodStart.Year(), periodStart.Month(), day, 0, 0, 0, 0, periodStart.Location())
}

// Summary aggregates a set of obligations by effective status.
type Summary struct {
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	CountByStatus map[string]int  `json:"count_by_status"`
	DepositStatus string          `json:"deposit_status"`
}

// SummarizeTenant folds over a tenant's full obligation set as of today.
// Nothing persisted is trusted over the freshly computed aggregate.
func (l *Ledger) SummarizeTenant(ctx context.Context, tenantID uint, today time.Time) (*Summary, error) {
	var payments []model.Payment
	err := l.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("due_date").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return summarize(payments, today), nil
}

// SummarizePeriod folds over all obligations due inside [from, to].
func (l *Ledger) SummarizePeriod(ctx context.Context, from, to, today time.Time) (*Summary, error) {
	var payments []model.Payment
	err := l.db.WithContext(ctx).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Order("due_date").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return summarize(payments, today), nil
}

func summarize(payments []model.Payment, today time.Time) *Summary {
	summary := &Summary{
		TotalAmount:   decimal.Zero,
		PaidAmount:    decimal.Zero,
		OverdueAmount: decimal.Zero,
		PendingAmount: decimal.Zero,
		CountByStatus: map[string]int{},
		DepositStatus: "none",
	}

	for _, p := range payments {
		status := EffectiveStatus(&p, today)
		summary.TotalAmount = summary.TotalAmount.Add(p.Amount)
		summary.CountByStatus[status]++

		switch status {
		case model.PaymentStatusPaid:
			summary.PaidAmount = summary.PaidAmount.Add(p.Amount)
		case model.PaymentStatusOverdue:
			summary.OverdueAmount = summary.OverdueAmount.Add(p.Amount)
		default:
			summary.PendingAmount = summary.PendingAmount.Add(p.Amount)
		}

		if p.Type == model.PaymentTypeDeposit && summary.DepositStatus != model.PaymentStatusPaid {
			if p.Status == model.PaymentStatusPaid {
				summary.DepositStatus = model.PaymentStatusPaid
			} else {
				summary.DepositStatus = model.PaymentStatusPending
			}
		}
	}

	return summary
}
