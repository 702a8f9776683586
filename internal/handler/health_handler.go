package handler

import (
	"net/http"

	"boardinghouse-service/pkg/database"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports service liveness and database reachability
func HealthCheck(c echo.Context) error {
	db := database.GetDB()
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Ping(); err == nil {
				return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
			}
		}
	}
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded"})
}
