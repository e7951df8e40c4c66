package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "pharmacy/api/swagger" // swagger docs
	"pharmacy/internal/config"
	"pharmacy/internal/database"
	"pharmacy/internal/handler"
	"pharmacy/internal/middleware"
	"pharmacy/internal/repository"
	"pharmacy/internal/service"
	"pharmacy/internal/websocket"
	"pharmacy/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

// @title           Pharmacy Inventory API
// @version         1.0
// @description     Medicine catalogue, stock refills and point-of-sale with transactional stock control.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Fatalw("invalid configuration", "error", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		logger.Default().Fatalw("logger init failed", "error", err)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatalw("database connection failed", "error", err)
	}
	log.Infow("connected to PostgreSQL")

	// Set up WebSocket Hub
	done := make(chan struct{})
	wsHub := websocket.NewHub(log)
	go wsHub.Run(done)

	// Repository -> Service -> Handler
	txManager := repository.NewTransactionManager(db, cfg.LockTimeout)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	medicineRepo := repository.NewMedicineRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	refillRepo := repository.NewRefillRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	middleware.InitAuth(cfg.JWTSecret)

	userService := service.NewUserService(userRepo, auditRepo, txManager, cfg.JWTSecret)
	auditService := service.NewAuditService(auditRepo)
	medicineService := service.NewMedicineService(medicineRepo, departmentRepo, movementRepo, auditRepo, txManager)
	departmentService := service.NewDepartmentService(departmentRepo, auditRepo, txManager)
	saleService := service.NewSaleService(saleRepo, medicineRepo, movementRepo, auditRepo, txManager, wsHub, cfg.LowStockAlerts)
	refillService := service.NewRefillService(refillRepo, medicineRepo, departmentRepo, movementRepo, auditRepo, txManager, wsHub)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	api := router.Group("/api")
	handler.NewUserHandler(userService).RegisterRoutes(api)
	handler.NewMedicineHandler(medicineService).RegisterRoutes(api)
	handler.NewDepartmentHandler(departmentService).RegisterRoutes(api)
	handler.NewSaleHandler(saleService).RegisterRoutes(api)
	handler.NewRefillHandler(refillService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
	close(done)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
