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

// AnnouncementRequest defines the structure for publishing an announcement
type AnnouncementRequest struct {
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
	Audience  string `json:"audience" validate:"omitempty,oneof=all tenants staff"`
	ExpiresAt string `json:"expires_at"`
}

// ListAnnouncements returns the announcements currently visible to the caller
func ListAnnouncements(c echo.Context) error {
	log := logger.FromContext(c)
	now := time.Now().UTC()

	query := database.GetDB().
		Where("published_at <= ?", now).
		Where("(expires_at IS NULL OR expires_at > ?)", now)

	role, _ := middleware.GetRoleFromContext(c)
	switch role {
	case "tenant":
		query = query.Where("audience IN ?", []string{model.AudienceAll, model.AudienceTenants})
	case "staff", "admin":
		// Staff and admin see everything
	default:
		query = query.Where("audience = ?", model.AudienceAll)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var announcements []model.Announcement
	result := query.Order("published_at desc").Find(&announcements)
	if result.Error != nil {
		log.Error("Failed to list announcements", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve announcements",
		})
	}

	log.Info("Announcements retrieved successfully", zap.Int("count", len(announcements)))
	return c.JSON(http.StatusOK, announcements)
}

// CreateAnnouncement publishes a new announcement
func CreateAnnouncement(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Publishing announcement")

	var req AnnouncementRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := validate.Struct(&req); err != nil {
		log.Warn("Announcement request failed validation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	expiresAt, err := parseOptionalDate(req.ExpiresAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	announcement := model.Announcement{
		Title:       req.Title,
		Body:        req.Body,
		Audience:    model.AudienceAll,
		PublishedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	if req.Audience != "" {
		announcement.Audience = req.Audience
	}
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		announcement.CreatedBy = userID
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&announcement)
	if result.Error != nil {
		log.Error("Failed to publish announcement", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to publish announcement",
		})
	}

	log.Info("Announcement published",
		zap.Uint("announcement_id", announcement.ID),
		zap.String("title", announcement.Title),
		zap.String("audience", announcement.Audience))
	return c.JSON(http.StatusCreated, announcement)
}
