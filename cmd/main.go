package main

import (
	"boardinghouse-service/internal/handler"
	"boardinghouse-service/internal/ledger"
	mid "boardinghouse-service/internal/middleware"
	"boardinghouse-service/internal/scheduler"
	"boardinghouse-service/pkg/config"
	"boardinghouse-service/pkg/database"
	"boardinghouse-service/pkg/jwtutil"
	"boardinghouse-service/pkg/logger"
	"boardinghouse-service/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Just log a warning, don't fail if .env file is not found
		// This allows the service to run in environments where env vars are set differently
		// such as production environments with proper environment configuration
		// The fallback values will be used in case env vars are not set
	}

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting boardinghouse-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire handlers to the shared database handle and billing policy
	handler.Init(appConfig)

	// Start the recurring billing scheduler
	scheduler.Start(ledger.New(database.GetDB(), &appConfig.Billing), &appConfig.Scheduler)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	staffOnly := mid.RequireRoles("admin", "staff")
	adminOnly := mid.RequireRoles("admin")

	// Room API routes
	roomAPI := e.Group("/api/rooms", mid.AuthMiddleware)
	roomAPI.GET("", handler.ListRooms)
	roomAPI.GET("/:id", handler.GetRoom)
	roomAPI.POST("", handler.CreateRoom, staffOnly)
	roomAPI.PUT("/:id", handler.UpdateRoom, staffOnly)
	roomAPI.DELETE("/:id", handler.DeleteRoom, adminOnly)
	roomAPI.POST("/:id/tenants", handler.AssignTenant, staffOnly)
	roomAPI.DELETE("/:id/tenants/:tenantID", handler.RemoveTenant, staffOnly)

	// Tenant API routes
	tenantAPI := e.Group("/api/tenants", mid.AuthMiddleware)
	tenantAPI.GET("", handler.ListTenants, staffOnly)
	tenantAPI.GET("/:id", handler.GetTenant, staffOnly)
	tenantAPI.POST("", handler.CreateTenant, staffOnly)
	tenantAPI.PUT("/:id", handler.UpdateTenant, staffOnly)
	tenantAPI.POST("/:id/archive", handler.ArchiveTenant, staffOnly)

	// Payment API routes
	paymentAPI := e.Group("/api/payments", mid.AuthMiddleware)
	paymentAPI.GET("", handler.ListPayments)
	paymentAPI.GET("/summary", handler.PaymentSummary)
	paymentAPI.GET("/:id", handler.GetPayment)
	paymentAPI.POST("", handler.CreatePayment, staffOnly)
	paymentAPI.POST("/:id/pay", handler.MarkPaymentPaid, staffOnly)
	paymentAPI.POST("/generate", handler.GenerateMonthlyPayments, staffOnly)
	paymentAPI.POST("/deposits/backfill", handler.BackfillDeposits, adminOnly)

	// Maintenance report API routes
	reportAPI := e.Group("/api/reports", mid.AuthMiddleware)
	reportAPI.GET("", handler.ListReports)
	reportAPI.POST("", handler.CreateReport)
	reportAPI.POST("/:id/status", handler.UpdateReportStatus, staffOnly)

	// Announcement API routes
	announcementAPI := e.Group("/api/announcements", mid.AuthMiddleware)
	announcementAPI.GET("", handler.ListAnnouncements)
	announcementAPI.POST("", handler.CreateAnnouncement, staffOnly)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
