package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"erp-service/internal/handler"
	"erp-service/internal/middleware"
	"erp-service/pkg/config"
	"erp-service/pkg/database"
	"erp-service/pkg/jwtutil"
	"erp-service/pkg/logger"
	"erp-service/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting ERP service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes - these don't belong under /api since they're for getting access to the API
	auth := e.Group("/api/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.POST("/reset-password", handler.ResetPassword)
	auth.POST("/verify-email", handler.VerifyEmail)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Own profile
	profile := api.Group("/users")
	profile.GET("/profile", handler.GetProfile)
	profile.PATCH("/profile", handler.UpdateProfile)
	profile.POST("/change-password", handler.ChangePassword)

	// User administration - admin only
	users := api.Group("/users", middleware.AdminOnly())
	users.GET("", handler.ListUsers)
	users.GET("/:id", handler.GetUser)
	users.PATCH("/:id/role", handler.UpdateUserRole)
	users.PATCH("/:id/status", handler.SetUserActive)
	users.DELETE("/:id", handler.DeleteUser)

	// Materials and inventory - inventory access
	materials := api.Group("/materials", middleware.InventoryAccess())
	materials.GET("", handler.ListMaterials)
	materials.GET("/low-stock", handler.ListLowStockMaterials)
	materials.GET("/:id", handler.GetMaterial)
	materials.GET("/:id/forecast", handler.GetMaterialForecast)
	materials.POST("", handler.CreateMaterial)
	materials.PATCH("/:id", handler.UpdateMaterial)
	materials.DELETE("/:id", handler.DeleteMaterial)

	// Stock ledger - inventory access
	stockLedger := api.Group("/stock-ledger", middleware.InventoryAccess())
	stockLedger.POST("", handler.CreateStockMovement)
	stockLedger.GET("", handler.ListStockMovements)
	stockLedger.GET("/:id", handler.GetStockMovement)
	stockLedger.DELETE("/:id", handler.DeleteStockMovement)

	// Manufacturing - manufacturing access
	workCenters := api.Group("/work-centers", middleware.ManufacturingAccess())
	workCenters.GET("", handler.ListWorkCenters)
	workCenters.GET("/:id", handler.GetWorkCenter)
	workCenters.POST("", handler.CreateWorkCenter)
	workCenters.PATCH("/:id", handler.UpdateWorkCenter)
	workCenters.DELETE("/:id", handler.DeleteWorkCenter)

	orders := api.Group("/manufacturing-orders", middleware.ManufacturingAccess())
	orders.GET("", handler.ListManufacturingOrders)
	orders.GET("/:id", handler.GetManufacturingOrder)
	orders.POST("", handler.CreateManufacturingOrder)
	orders.PATCH("/:id", handler.UpdateManufacturingOrder)
	orders.DELETE("/:id", handler.DeleteManufacturingOrder)

	workOrders := api.Group("/work-orders", middleware.ManufacturingAccess())
	workOrders.GET("", handler.ListWorkOrders)
	workOrders.GET("/:id", handler.GetWorkOrder)
	workOrders.POST("", handler.CreateWorkOrder)
	workOrders.PATCH("/:id", handler.UpdateWorkOrder)
	workOrders.DELETE("/:id", handler.DeleteWorkOrder)

	boms := api.Group("/boms", middleware.ManufacturingAccess())
	boms.GET("", handler.ListBOMs)
	boms.GET("/:id", handler.GetBOM)
	boms.POST("", handler.CreateBOM)
	boms.PATCH("/:id", handler.UpdateBOM)
	boms.DELETE("/:id", handler.DeleteBOM)

	maintenance := api.Group("/maintenance", middleware.ManufacturingAccess())
	maintenance.GET("", handler.ListMaintenanceRequests)
	maintenance.GET("/:id", handler.GetMaintenanceRequest)
	maintenance.POST("", handler.CreateMaintenanceRequest)
	maintenance.PATCH("/:id", handler.UpdateMaintenanceRequest)
	maintenance.DELETE("/:id", handler.DeleteMaintenanceRequest)

	quality := api.Group("/quality-checks", middleware.ManufacturingAccess())
	quality.GET("", handler.ListQualityChecks)
	quality.GET("/:id", handler.GetQualityCheck)
	quality.POST("", handler.CreateQualityCheck)
	quality.PATCH("/:id", handler.UpdateQualityCheck)
	quality.DELETE("/:id", handler.DeleteQualityCheck)

	// Dashboard - any authenticated user
	api.GET("/dashboard/kpis", handler.GetDashboardKPIs)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
