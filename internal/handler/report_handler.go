package handler

import (
	"net/http"
	"time"

	"boardinghouse-service/internal/middleware"
	"boardinghouse-service/internal/model"
	"boardinghouse-service/pkg/database"
	"boardinghouse-service/pkg/logger"
	"boardinghouse-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportRequest defines the structure for filing a maintenance report
type ReportRequest struct {
	RoomID      uint   `json:"room_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// ReportStatusRequest defines the structure for advancing a report's status
type ReportStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListReports handles retrieving maintenance reports with optional filtering
func ListReports(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing maintenance reports")

	query := database.GetDB()

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
		log.Info("Filtering reports by status", zap.String("status", status))
	}
	if roomID := c.QueryParam("room_id"); roomID != "" {
		query = query.Where("room_id = ?", roomID)
		log.Info("Filtering reports by room", zap.String("room_id", roomID))
	}

	// Tenant callers only see reports they filed
	if role, _ := middleware.GetRoleFromContext(c); role == "tenant" {
		tenantID, ok := middleware.GetTenantIDFromContext(c)
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "tenant_id is required in the token",
			})
		}
		query = query.Where("tenant_id = ?", tenantID)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var reports []model.MaintenanceReport
	result := query.Order("created_at desc").Find(&reports)
	if result.Error != nil {
		log.Error("Failed to list reports", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve reports",
		})
	}

	log.Info("Reports retrieved successfully", zap.Int("count", len(reports)))
	return c.JSON(http.StatusOK, reports)
}

// CreateReport handles filing a maintenance report against a room
func CreateReport(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Filing maintenance report")

	var req ReportRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := validate.Struct(&req); err != nil {
		log.Warn("Report request failed validation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	var room model.Room
	if err := database.GetDB().First(&room, req.RoomID).Error; err != nil {
		log.Warn("Room not found for report", zap.Uint("room_id", req.RoomID))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Room not found",
		})
	}

	report := model.MaintenanceReport{
		RoomID:      req.RoomID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.ReportPriorityMedium,
		Status:      model.ReportStatusOpen,
	}
	if req.Priority != "" {
		report.Priority = req.Priority
	}
	if tenantID, ok := middleware.GetTenantIDFromContext(c); ok {
		report.TenantID = &tenantID
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&report)
	if result.Error != nil {
		log.Error("Failed to file report",
			zap.Uint("room_id", req.RoomID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to file report",
		})
	}

	log.Info("Report filed successfully",
		zap.Uint("report_id", report.ID),
		zap.Uint("room_id", report.RoomID),
		zap.String("priority", report.Priority))
	return c.JSON(http.StatusCreated, report)
}

// UpdateReportStatus advances a maintenance report through its lifecycle.
// Resolving a report stamps the room's last-maintenance date.
func UpdateReportStatus(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating report status", zap.String("report_id", id))

	var req ReportStatusRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if !model.ValidReportStatuses[req.Status] {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unknown report status",
		})
	}

	var report model.MaintenanceReport
	result := database.GetDB().First(&report, id)
	if result.Error != nil {
		log.Warn("Report not found", zap.String("report_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Report not found",
		})
	}

	report.Status = req.Status
	if req.Status == model.ReportStatusResolved && report.ResolvedAt == nil {
		now := time.Now().UTC()
		report.ResolvedAt = &now

		if err := database.GetDB().Model(&model.Room{}).
			Where("id = ?", report.RoomID).
			UpdateColumn("last_maintenance_date", now).Error; err != nil {
			log.Error("Failed to stamp room maintenance date",
				zap.Uint("room_id", report.RoomID),
				zap.Error(err))
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	result = database.GetDB().Save(&report)
	if result.Error != nil {
		log.Error("Failed to update report",
			zap.String("report_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update report",
		})
	}

	log.Info("Report status updated",
		zap.String("report_id", id),
		zap.String("status", report.Status))
	return c.JSON(http.StatusOK, report)
}
