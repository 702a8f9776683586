package handler

import (
	"net/http"
	"time"

	"boardinghouse-service/internal/ledger"
	"boardinghouse-service/internal/middleware"
	"boardinghouse-service/internal/model"
	"boardinghouse-service/pkg/database"
	"boardinghouse-service/pkg/logger"
	"boardinghouse-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentRequest defines the structure for manual obligation creation
type PaymentRequest struct {
	TenantID    uint            `json:"tenant_id" validate:"required"`
	RoomID      uint            `json:"room_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type" validate:"required"`
	DueDate     string          `json:"due_date" validate:"required"`
	PeriodStart string          `json:"period_start"`
	PeriodEnd   string          `json:"period_end"`
	Notes       string          `json:"notes"`
}

// MarkPaidRequest defines the structure for recording a payment
type MarkPaidRequest struct {
	PaymentDate    string `json:"payment_date" validate:"required"`
	Method         string `json:"method" validate:"required"`
	TransactionRef string `json:"transaction_ref"`
	Notes          string `json:"notes"`
}

// PaymentResponse wraps a payment with its read-time effective status
type PaymentResponse struct {
	model.Payment
	EffectiveStatus string `json:"effective_status"`
}

func toPaymentResponse(p model.Payment, today time.Time) PaymentResponse {
	return PaymentResponse{
		Payment:         p,
		EffectiveStatus: ledger.EffectiveStatus(&p, today),
	}
}

// ListPayments handles retrieving payments with optional filtering. Callers
// with the tenant role only ever see their own ledger.
func ListPayments(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing payments with filters")

	db := database.GetDB()
	query := db

	if role, _ := middleware.GetRoleFromContext(c); role == "tenant" {
		tenantID, ok := middleware.GetTenantIDFromContext(c)
		if !ok {
			log.Warn("Tenant caller without tenant_id claim")
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "tenant_id is required in the token",
			})
		}
		query = query.Where("tenant_id = ?", tenantID)
	} else if tenantID := c.QueryParam("tenant_id"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
		log.Info("Filtering payments by tenant", zap.String("tenant_id", tenantID))
	}

	if paymentType := c.QueryParam("type"); paymentType != "" {
		query = query.Where("type = ?", paymentType)
		log.Info("Filtering payments by type", zap.String("type", paymentType))
	}

	if month := c.QueryParam("month"); month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid month, expected YYYY-MM",
			})
		}
		query = query.Where("due_date >= ? AND due_date < ?", start, start.AddDate(0, 1, 0))
		log.Info("Filtering payments by month", zap.String("month", month))
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var payments []model.Payment
	result := query.Order("due_date desc").Find(&payments)
	if result.Error != nil {
		log.Error("Failed to list payments", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve payments",
		})
	}

	// The status filter applies to the derived status, so "overdue"
	// works without any stored transition.
	today := nowUTC()
	statusFilter := c.QueryParam("status")
	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp := toPaymentResponse(p, today)
		if statusFilter != "" && resp.EffectiveStatus != statusFilter {
			continue
		}
		responses = append(responses, resp)
	}

	log.Info("Payments retrieved successfully", zap.Int("count", len(responses)))
	return c.JSON(http.StatusOK, responses)
}

// GetPayment handles retrieving a single payment by ID
func GetPayment(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting payment by ID", zap.String("payment_id", id))

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var payment model.Payment
	result := database.GetDB().First(&payment, id)
	if result.Error != nil {
		log.Error("Payment not found",
			zap.String("payment_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Payment not found",
		})
	}

	if role, _ := middleware.GetRoleFromContext(c); role == "tenant" {
		tenantID, ok := middleware.GetTenantIDFromContext(c)
		if !ok || payment.TenantID != tenantID {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "insufficient permissions",
			})
		}
	}

	return c.JSON(http.StatusOK, toPaymentResponse(payment, nowUTC()))
}

// CreatePayment handles creating a manual obligation (penalty, utility,
// one-off charges). Recurring rent comes from the generation run instead.
func CreatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating manual payment obligation")

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := validate.Struct(&req); err != nil {
		log.Warn("Payment request failed validation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	if !model.ValidPaymentTypes[req.Type] {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unknown payment type",
		})
	}
	if !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Amount must be greater than zero",
		})
	}

	var tenant model.Tenant
	if err := database.GetDB().First(&tenant, req.TenantID).Error; err != nil {
		log.Warn("Tenant not found for payment", zap.Uint("tenant_id", req.TenantID))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Tenant not found",
		})
	}

	roomID := req.RoomID
	if roomID == 0 {
		if tenant.RoomID == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Tenant has no room assigned; room_id is required",
			})
		}
		roomID = *tenant.RoomID
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	periodStart, err := parseOptionalDate(req.PeriodStart)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	periodEnd, err := parseOptionalDate(req.PeriodEnd)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	// Check against the same uniqueness the generation run relies on: one
	// obligation per tenant, type and period.
	if periodStart != nil {
		var count int64
		database.GetDB().Model(&model.Payment{}).
			Where("tenant_id = ? AND type = ? AND period_start = ?", req.TenantID, req.Type, periodStart).
			Count(&count)
		if count > 0 {
			log.Warn("Obligation already exists for this period",
				zap.Uint("tenant_id", req.TenantID),
				zap.String("type", req.Type),
				zap.String("period_start", req.PeriodStart))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "A payment of this type already exists for this period",
			})
		}
	}

	payment := model.Payment{
		TenantID:    req.TenantID,
		RoomID:      roomID,
		Amount:      req.Amount,
		Type:        req.Type,
		Status:      model.PaymentStatusPending,
		DueDate:     dueDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Notes:       req.Notes,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&payment)
	if result.Error != nil {
		log.Error("Failed to create payment",
			zap.Uint("tenant_id", req.TenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create payment",
		})
	}

	prometheus.RecordPaymentOperation("create", "success")
	log.Info("Payment created successfully",
		zap.Uint("payment_id", payment.ID),
		zap.Uint("tenant_id", payment.TenantID),
		zap.String("type", payment.Type),
		zap.String("amount", payment.Amount.String()))
	return c.JSON(http.StatusCreated, payment)
}

// MarkPaymentPaid handles the terminal pending/due -> paid transition
func MarkPaymentPaid(c echo.Context) error {
	log := logger.FromContext(c)

	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payment ID"})
	}

	var req MarkPaidRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := validate.Struct(&req); err != nil {
		log.Warn("Mark-paid request failed validation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	paidAt, err := parseDate(req.PaymentDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	log.Info("Marking payment as paid",
		zap.Uint("payment_id", paymentID),
		zap.String("method", req.Method))

	result, err := led.MarkAsPaid(c.Request().Context(), paymentID, paidAt, req.Method, req.TransactionRef, req.Notes)
	if err != nil {
		prometheus.RecordPaymentOperation("mark_paid", "error")
		log.Error("Failed to mark payment as paid", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to mark payment as paid",
		})
	}
	if !result.Valid {
		prometheus.RecordPaymentOperation("mark_paid", "rejected")
		log.Warn("Mark-paid rejected by validation",
			zap.Uint("payment_id", paymentID),
			zap.Strings("errors", result.Errors))
		return c.JSON(http.StatusUnprocessableEntity, result)
	}

	prometheus.RecordPaymentOperation("mark_paid", "success")
	log.Info("Payment marked as paid",
		zap.Uint("payment_id", paymentID),
		zap.String("method", req.Method))

	var payment model.Payment
	if err := database.GetDB().First(&payment, paymentID).Error; err == nil {
		return c.JSON(http.StatusOK, toPaymentResponse(payment, nowUTC()))
	}
	return c.JSON(http.StatusOK, result)
}

// GenerateMonthlyPayments triggers a monthly obligation generation run for
// the current (or requested) month. Reruns are no-ops, not errors.
func GenerateMonthlyPayments(c echo.Context) error {
	log := logger.FromContext(c)

	asOf := nowUTC()
	if month := c.QueryParam("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid month, expected YYYY-MM",
			})
		}
		asOf = parsed
	}

	log.Info("Generating monthly obligations", zap.String("month", asOf.Format("2006-01")))

	created, err := led.GenerateMonthlyObligations(c.Request().Context(), asOf)
	if err != nil {
		prometheus.RecordPaymentOperation("generate", "error")
		log.Error("Monthly generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to generate monthly obligations",
		})
	}

	prometheus.RecordPaymentOperation("generate", "success")
	prometheus.RecordObligationsCreated(model.PaymentTypeRent, len(created))
	log.Info("Monthly generation completed",
		zap.String("month", asOf.Format("2006-01")),
		zap.Int("created", len(created)))
	return c.JSON(http.StatusOK, echo.Map{
		"month":    asOf.Format("2006-01"),
		"created":  len(created),
		"payments": created,
	})
}

// BackfillDeposits triggers the one-time deposit backfill pass
func BackfillDeposits(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Backfilling deposit obligations")

	created, err := led.BackfillDeposits(c.Request().Context())
	if err != nil {
		prometheus.RecordPaymentOperation("backfill_deposits", "error")
		log.Error("Deposit backfill failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to backfill deposits",
		})
	}

	prometheus.RecordPaymentOperation("backfill_deposits", "success")
	prometheus.RecordObligationsCreated(model.PaymentTypeDeposit, len(created))
	log.Info("Deposit backfill completed", zap.Int("created", len(created)))
	return c.JSON(http.StatusOK, echo.Map{
		"created":  len(created),
		"payments": created,
	})
}

// PaymentSummary returns a freshly computed aggregate for a tenant or a
// due-date period. Nothing persisted is trusted over the recomputed fold.
func PaymentSummary(c echo.Context) error {
	log := logger.FromContext(c)
	today := nowUTC()

	if role, _ := middleware.GetRoleFromContext(c); role == "tenant" {
		tenantID, ok := middleware.GetTenantIDFromContext(c)
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "tenant_id is required in the token",
			})
		}
		summary, err := led.SummarizeTenant(c.Request().Context(), tenantID, today)
		if err != nil {
			log.Error("Failed to summarize tenant payments", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to compute summary",
			})
		}
		return c.JSON(http.StatusOK, summary)
	}

	if tenantParam := c.QueryParam("tenant_id"); tenantParam != "" {
		tenantID, err := parseID(tenantParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid tenant ID"})
		}
		summary, err := led.SummarizeTenant(c.Request().Context(), tenantID, today)
		if err != nil {
			log.Error("Failed to summarize tenant payments", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to compute summary",
			})
		}
		log.Info("Tenant summary computed", zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusOK, summary)
	}

	month := c.QueryParam("month")
	if month == "" {
		month = today.Format("2006-01")
	}
	from, err := time.Parse("2006-01", month)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid month, expected YYYY-MM",
		})
	}
	to := from.AddDate(0, 1, -1)

	summary, err := led.SummarizePeriod(c.Request().Context(), from, to, today)
	if err != nil {
		log.Error("Failed to summarize period payments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute summary",
		})
	}

	log.Info("Period summary computed", zap.String("month", month))
	return c.JSON(http.StatusOK, summary)
}
