package handler

import (
	"net/http"
	"strconv"
	"time"

	"boardinghouse-service/internal/model"
	"boardinghouse-service/pkg/database"
	"boardinghouse-service/pkg/logger"
	"boardinghouse-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TenantRequest defines the structure for tenant registration/update requests
type TenantRequest struct {
	Name                string           `json:"name" validate:"required"`
	Email               string           `json:"email" validate:"omitempty,email"`
	Phone               string           `json:"phone"`
	EmergencyContact    string           `json:"emergency_contact"`
	Status              string           `json:"status" validate:"omitempty,oneof=active inactive pending"`
	MonthlyRentOverride *decimal.Decimal `json:"monthly_rent_override"`
}

// ListTenants handles retrieving all tenants with optional filtering
func ListTenants(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing tenants with filters")

	db := database.GetDB()
	var tenants []model.Tenant

	query := db

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
		log.Info("Filtering tenants by status", zap.String("status", status))
	}

	if archived := c.QueryParam("archived"); archived != "" {
		archivedFlag, err := strconv.ParseBool(archived)
		if err == nil {
			query = query.Where("archived = ?", archivedFlag)
			log.Info("Filtering tenants by archived flag", zap.Bool("archived", archivedFlag))
		} else {
			log.Warn("Invalid archived parameter", zap.String("value", archived), zap.Error(err))
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	result := query.Order("name").Find(&tenants)
	if result.Error != nil {
		log.Error("Failed to list tenants", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve tenants",
		})
	}

	log.Info("Tenants retrieved successfully", zap.Int("count", len(tenants)))
	return c.JSON(http.StatusOK, tenants)
}

// GetTenant handles retrieving a single tenant by ID
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting tenant by ID", zap.String("tenant_id", id))

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenant model.Tenant
	result := database.GetDB().First(&tenant, id)
	if result.Error != nil {
		log.Error("Tenant not found",
			zap.String("tenant_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Tenant not found",
		})
	}

	log.Info("Tenant retrieved successfully",
		zap.String("tenant_id", id),
		zap.String("name", tenant.Name))
	return c.JSON(http.StatusOK, tenant)
}

// CreateTenant handles registering a new tenant
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Registering new tenant")

	var req TenantRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := validate.Struct(&req); err != nil {
		log.Warn("Tenant request failed validation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	tenant := model.Tenant{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		EmergencyContact:    req.EmergencyContact,
		Status:              model.TenantStatusPending,
		MonthlyRentOverride: req.MonthlyRentOverride,
	}
	if req.Status != "" {
		tenant.Status = req.Status
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&tenant)
	if result.Error != nil {
		log.Error("Failed to register tenant",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to register tenant",
		})
	}

	log.Info("Tenant registered successfully",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("name", tenant.Name))
	return c.JSON(http.StatusCreated, tenant)
}

// UpdateTenant handles updating a tenant's profile. The room reference and
// lease dates are owned by the assignment operations and are not editable.
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating tenant", zap.String("tenant_id", id))

	var req TenantRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("tenant_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var tenant model.Tenant
	result := database.GetDB().First(&tenant, id)
	if result.Error != nil {
		log.Error("Tenant not found for update",
			zap.String("tenant_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Tenant not found",
		})
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.Email != "" {
		tenant.Email = req.Email
	}
	if req.Phone != "" {
		tenant.Phone = req.Phone
	}
	if req.EmergencyContact != "" {
		tenant.EmergencyContact = req.EmergencyContact
	}
	if req.Status != "" {
		switch req.Status {
		case model.TenantStatusActive, model.TenantStatusInactive, model.TenantStatusPending:
			tenant.Status = req.Status
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Unknown tenant status",
			})
		}
	}
	if req.MonthlyRentOverride != nil {
		tenant.MonthlyRentOverride = req.MonthlyRentOverride
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	result = database.GetDB().Save(&tenant)
	if result.Error != nil {
		log.Error("Failed to update tenant",
			zap.String("tenant_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update tenant",
		})
	}

	log.Info("Tenant updated successfully",
		zap.String("tenant_id", id),
		zap.String("name", tenant.Name))
	return c.JSON(http.StatusOK, tenant)
}

// ArchiveTenant handles archiving a tenant. An archived tenant is excluded
// from assignment eligibility and monthly generation; a tenant still holding
// a room must be removed from it first.
func ArchiveTenant(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Archiving tenant", zap.String("tenant_id", id))

	var tenant model.Tenant
	result := database.GetDB().First(&tenant, id)
	if result.Error != nil {
		log.Warn("Tenant not found for archiving", zap.String("tenant_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Tenant not found",
		})
	}

	if tenant.RoomID != nil {
		log.Warn("Refusing to archive tenant still assigned to a room",
			zap.String("tenant_id", id),
			zap.Uint("room_id", *tenant.RoomID))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Tenant is still assigned to a room; remove the assignment first",
		})
	}

	tenant.Archived = true
	tenant.Status = model.TenantStatusInactive

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	result = database.GetDB().Save(&tenant)
	if result.Error != nil {
		log.Error("Failed to archive tenant",
			zap.String("tenant_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to archive tenant",
		})
	}

	log.Info("Tenant archived successfully",
		zap.String("tenant_id", id),
		zap.String("name", tenant.Name))
	return c.JSON(http.StatusOK, tenant)
}
