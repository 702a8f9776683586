package handler

import (
	"net/http"
	"strconv"
	"time"

	"boardinghouse-service/internal/model"
	"boardinghouse-service/internal/occupancy"
	"boardinghouse-service/pkg/database"
	"boardinghouse-service/pkg/logger"
	"boardinghouse-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RoomRequest defines the structure for room creation/update requests
type RoomRequest struct {
	RoomNumber      string          `json:"room_number" validate:"required"`
	Floor           string          `json:"floor"`
	Description     string          `json:"description"`
	Capacity        int             `json:"capacity" validate:"required,gt=0"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	IsActive        *bool           `json:"is_active"`
	Status          string          `json:"status"`
	LastMaintenance string          `json:"last_maintenance_date"`
	NextMaintenance string          `json:"next_maintenance_date"`
}

// RoomResponse wraps a room with its derived status views
type RoomResponse struct {
	model.Room
	CapacityStatus    occupancy.CapacityStatus    `json:"capacity_status"`
	MaintenanceStatus occupancy.MaintenanceStatus `json:"maintenance_status"`
}

// ListRooms handles retrieving all rooms with optional filtering
func ListRooms(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing rooms with filters")

	db := database.GetDB()
	var rooms []model.Room

	query := db.Preload("Tenants")

	// Filter by status if specified
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
		log.Info("Filtering rooms by status", zap.String("status", status))
	}

	// Filter by active flag if specified
	if isActive := c.QueryParam("is_active"); isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("is_active = ?", active)
			log.Info("Filtering rooms by active flag", zap.Bool("is_active", active))
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	result := query.Order("room_number").Find(&rooms)
	if result.Error != nil {
		log.Error("Failed to list rooms", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve rooms",
		})
	}

	log.Info("Rooms retrieved successfully", zap.Int("count", len(rooms)))
	return c.JSON(http.StatusOK, rooms)
}

// GetRoom handles retrieving a single room with its derived status views
func GetRoom(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting room by ID", zap.String("room_id", id))

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var room model.Room
	result := database.GetDB().Preload("Tenants").First(&room, id)
	if result.Error != nil {
		log.Error("Room not found",
			zap.String("room_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Room not found",
		})
	}

	response := RoomResponse{
		Room:              room,
		CapacityStatus:    occupancy.ComputeCapacityStatus(&room),
		MaintenanceStatus: occupancy.ComputeMaintenanceStatus(&room, nowUTC()),
	}

	log.Info("Room retrieved successfully",
		zap.String("room_id", id),
		zap.String("room_number", room.RoomNumber),
		zap.Int("current_occupancy", room.CurrentOccupancy))
	return c.JSON(http.StatusOK, response)
}

// CreateRoom handles creating a new room
func CreateRoom(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new room")

	var req RoomRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := validate.Struct(&req); err != nil {
		log.Warn("Room request failed validation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	// Check if room with this number already exists
	var count int64
	database.GetDB().Model(&model.Room{}).Where("room_number = ?", req.RoomNumber).Count(&count)
	if count > 0 {
		log.Warn("Room with this number already exists", zap.String("room_number", req.RoomNumber))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Room with this number already exists",
		})
	}

	lastMaintenance, err := parseOptionalDate(req.LastMaintenance)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	nextMaintenance, err := parseOptionalDate(req.NextMaintenance)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	room := model.Room{
		RoomNumber:          req.RoomNumber,
		Floor:               req.Floor,
		Description:         req.Description,
		Capacity:            req.Capacity,
		Status:              model.RoomStatusAvailable,
		MonthlyRent:         req.MonthlyRent,
		SecurityDeposit:     req.SecurityDeposit,
		IsActive:            true,
		LastMaintenanceDate: lastMaintenance,
		NextMaintenanceDate: nextMaintenance,
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&room)
	if result.Error != nil {
		log.Error("Failed to create room",
			zap.String("room_number", req.RoomNumber),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create room",
		})
	}

	log.Info("Room created successfully",
		zap.Uint("room_id", room.ID),
		zap.String("room_number", room.RoomNumber),
		zap.Int("capacity", room.Capacity))
	return c.JSON(http.StatusCreated, room)
}

// UpdateRoom handles updating a room's attributes. Occupancy and the
// occupancy-derived status are owned by the assignment operations and are
// never editable here; a manual status change to maintenance/unavailable is.
func UpdateRoom(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating room", zap.String("room_id", id))

	var req RoomRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("room_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var room model.Room
	result := database.GetDB().First(&room, id)
	if result.Error != nil {
		log.Error("Room not found for update",
			zap.String("room_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Room not found",
		})
	}

	// Check if room number is changed and if the new number already exists
	if req.RoomNumber != "" && req.RoomNumber != room.RoomNumber {
		var count int64
		database.GetDB().Model(&model.Room{}).Where("room_number = ? AND id != ?", req.RoomNumber, id).Count(&count)
		if count > 0 {
			log.Warn("Room with this number already exists",
				zap.String("room_number", req.RoomNumber))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Room with this number already exists",
			})
		}
		room.RoomNumber = req.RoomNumber
	}

	if req.Status != "" {
		switch req.Status {
		case model.RoomStatusAvailable, model.RoomStatusMaintenance, model.RoomStatusUnavailable:
			// Shrinking back to available on a full room would contradict
			// the capacity invariant.
			if req.Status == model.RoomStatusAvailable && room.CurrentOccupancy >= room.Capacity {
				return c.JSON(http.StatusConflict, echo.Map{
					"error": "Room is at full capacity and cannot be marked available",
				})
			}
			room.Status = req.Status
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Room status can only be set to available, maintenance or unavailable",
			})
		}
	}

	if req.Capacity > 0 {
		if req.Capacity < room.CurrentOccupancy {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Capacity cannot be reduced below the current occupant count",
			})
		}
		room.Capacity = req.Capacity
		if room.CurrentOccupancy >= room.Capacity && room.Status == model.RoomStatusAvailable {
			room.Status = model.RoomStatusOccupied
		}
	}
	if req.Floor != "" {
		room.Floor = req.Floor
	}
	if req.Description != "" {
		room.Description = req.Description
	}
	if !req.MonthlyRent.IsZero() {
		// Pending obligations keep the amount fixed at their creation;
		// the new rent only affects future generation runs.
		room.MonthlyRent = req.MonthlyRent
	}
	if !req.SecurityDeposit.IsZero() {
		room.SecurityDeposit = req.SecurityDeposit
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}

	lastMaintenance, err := parseOptionalDate(req.LastMaintenance)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if lastMaintenance != nil {
		room.LastMaintenanceDate = lastMaintenance
	}
	nextMaintenance, err := parseOptionalDate(req.NextMaintenance)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if nextMaintenance != nil {
		room.NextMaintenanceDate = nextMaintenance
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	result = database.GetDB().Save(&room)
	if result.Error != nil {
		log.Error("Failed to update room",
			zap.String("room_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update room",
		})
	}

	log.Info("Room updated successfully",
		zap.String("room_id", id),
		zap.String("room_number", room.RoomNumber),
		zap.String("status", room.Status))
	return c.JSON(http.StatusOK, room)
}

// DeleteRoom handles deleting a room. Only empty rooms can be deleted.
func DeleteRoom(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deleting room", zap.String("room_id", id))

	var room model.Room
	result := database.GetDB().Preload("Tenants").First(&room, id)
	if result.Error != nil {
		log.Warn("Room not found for deletion", zap.String("room_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Room not found",
		})
	}

	if len(room.Tenants) > 0 || room.CurrentOccupancy > 0 {
		log.Warn("Refusing to delete occupied room",
			zap.String("room_id", id),
			zap.Int("current_occupancy", room.CurrentOccupancy))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Room still has tenants assigned and cannot be deleted",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result = database.GetDB().Delete(&room)
	if result.Error != nil {
		log.Error("Failed to delete room",
			zap.String("room_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete room",
		})
	}

	log.Info("Room deleted successfully",
		zap.String("room_id", id),
		zap.String("room_number", room.RoomNumber))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Room deleted successfully",
	})
}
