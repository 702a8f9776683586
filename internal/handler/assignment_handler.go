package handler

import (
	"errors"
	"net/http"
	"strconv"

	"boardinghouse-service/internal/model"
	"boardinghouse-service/internal/occupancy"
	"boardinghouse-service/pkg/database"
	"boardinghouse-service/pkg/logger"
	"boardinghouse-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AssignTenantRequest defines the structure for assignment requests
type AssignTenantRequest struct {
	TenantID   uint   `json:"tenant_id" validate:"required"`
	LeaseStart string `json:"lease_start" validate:"required"`
	LeaseEnd   string `json:"lease_end"`
}

// AssignTenant handles linking a tenant to a room. Validation failures come
// back as the full aggregate list so staff can fix everything in one pass.
func AssignTenant(c echo.Context) error {
	log := logger.FromContext(c)

	roomID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid room ID"})
	}

	var req AssignTenantRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := validate.Struct(&req); err != nil {
		log.Warn("Assignment request failed validation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	leaseStart, err := parseDate(req.LeaseStart)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	leaseEnd, err := parseOptionalDate(req.LeaseEnd)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	log.Info("Assigning tenant to room",
		zap.Uint("room_id", roomID),
		zap.Uint("tenant_id", req.TenantID))

	result, err := occ.AssignTenant(c.Request().Context(), roomID, req.TenantID, leaseStart, leaseEnd)
	if err != nil {
		// An invariant violation means a concurrent write race or a bug:
		// the transaction was rolled back. Surface a retryable generic
		// message, keep the detail in the logs.
		prometheus.RecordAssignmentOperation("assign", "error")
		if errors.Is(err, occupancy.ErrInvariantViolation) {
			log.Error("Assignment aborted on invariant violation", zap.Error(err))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Operation failed, please retry",
			})
		}
		log.Error("Failed to assign tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to assign tenant",
		})
	}

	if !result.Valid {
		log.Warn("Assignment rejected by validation",
			zap.Uint("room_id", roomID),
			zap.Uint("tenant_id", req.TenantID),
			zap.Strings("errors", result.Errors))
		prometheus.RecordAssignmentOperation("assign", "rejected")
		return c.JSON(http.StatusUnprocessableEntity, result)
	}

	recordOccupancyGauge(roomID)
	prometheus.RecordAssignmentOperation("assign", "success")
	log.Info("Tenant assigned successfully",
		zap.Uint("room_id", roomID),
		zap.Uint("tenant_id", req.TenantID))
	return c.JSON(http.StatusOK, result)
}

// RemoveTenant handles unlinking a tenant from a room
func RemoveTenant(c echo.Context) error {
	log := logger.FromContext(c)

	roomID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid room ID"})
	}
	tenantID, err := parseID(c.Param("tenantID"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid tenant ID"})
	}

	log.Info("Removing tenant from room",
		zap.Uint("room_id", roomID),
		zap.Uint("tenant_id", tenantID))

	result, err := occ.RemoveTenant(c.Request().Context(), roomID, tenantID)
	if err != nil {
		prometheus.RecordAssignmentOperation("remove", "error")
		if errors.Is(err, occupancy.ErrInvariantViolation) {
			log.Error("Removal aborted on invariant violation", zap.Error(err))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Operation failed, please retry",
			})
		}
		log.Error("Failed to remove tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to remove tenant",
		})
	}

	if !result.Valid {
		log.Warn("Removal rejected by validation",
			zap.Uint("room_id", roomID),
			zap.Uint("tenant_id", tenantID),
			zap.Strings("errors", result.Errors))
		prometheus.RecordAssignmentOperation("remove", "rejected")
		return c.JSON(http.StatusUnprocessableEntity, result)
	}

	recordOccupancyGauge(roomID)
	prometheus.RecordAssignmentOperation("remove", "success")
	log.Info("Tenant removed successfully",
		zap.Uint("room_id", roomID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, result)
}

// recordOccupancyGauge refreshes the per-room occupancy gauge after a
// successful assignment mutation
func recordOccupancyGauge(roomID uint) {
	var room model.Room
	if err := database.GetDB().First(&room, roomID).Error; err != nil {
		return
	}
	prometheus.UpdateRoomOccupancy(room.RoomNumber, float64(room.CurrentOccupancy))
}

// parseID parses a numeric path parameter
func parseID(value string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
