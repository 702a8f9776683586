package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment types
const (
	PaymentTypeRent        = "rent"
	PaymentTypeDeposit     = "deposit"
	PaymentTypeUtility     = "utility"
	PaymentTypeMaintenance = "maintenance"
	PaymentTypePenalty     = "penalty"
	PaymentTypeOther       = "other"
)

// Payment methods
const (
	PaymentMethodCash          = "cash"
	PaymentMethodBankTransfer  = "bank_transfer"
	PaymentMethodCheck         = "check"
	PaymentMethodCreditCard    = "credit_card"
	PaymentMethodDebitCard     = "debit_card"
	PaymentMethodDigitalWallet = "digital_wallet"
	PaymentMethodMoneyOrder    = "money_order"
)

// Stored payment statuses. "overdue" is derived at read time and never
// written to the status column.
const (
	PaymentStatusPending = "pending"
	PaymentStatusDue     = "due"
	PaymentStatusPaid    = "paid"
	PaymentStatusOverdue = "overdue"
)

// Payment represents a single scheduled or recorded obligation tied to a
// tenant and the room held at creation time. The composite unique index on
// (tenant_id, type, period_start) backs idempotent monthly generation.
// Payments are never deleted, only superseded by new period instances.
type Payment struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	TenantID       uint            `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_payments_tenant_type_period"`
	RoomID         uint            `json:"room_id" gorm:"not null;index"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Type           string          `json:"type" gorm:"type:varchar(20);not null;uniqueIndex:idx_payments_tenant_type_period"`
	Method         string          `json:"method,omitempty" gorm:"type:varchar(20)"`
	Status         string          `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	DueDate        time.Time       `json:"due_date" gorm:"not null;index"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	PeriodStart    *time.Time      `json:"period_start,omitempty" gorm:"uniqueIndex:idx_payments_tenant_type_period"`
	PeriodEnd      *time.Time      `json:"period_end,omitempty"`
	TransactionRef *string         `json:"transaction_ref,omitempty" gorm:"type:varchar(100)"`
	Notes          string          `json:"notes" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ValidPaymentMethods is the closed set accepted when recording a payment
var ValidPaymentMethods = map[string]bool{
	PaymentMethodCash:          true,
	PaymentMethodBankTransfer:  true,
	PaymentMethodCheck:         true,
	PaymentMethodCreditCard:    true,
	PaymentMethodDebitCard:     true,
	PaymentMethodDigitalWallet: true,
	PaymentMethodMoneyOrder:    true,
}

// ValidPaymentTypes is the closed set accepted when creating an obligation
var ValidPaymentTypes = map[string]bool{
	PaymentTypeRent:        true,
	PaymentTypeDeposit:     true,
	PaymentTypeUtility:     true,
	PaymentTypeMaintenance: true,
	PaymentTypePenalty:     true,
	PaymentTypeOther:       true,
}
