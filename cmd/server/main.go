package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	financeapp "github.com/ipagency/backend/internal/application/finance"
	"github.com/ipagency/backend/internal/domain/finance"
	"github.com/ipagency/backend/internal/infrastructure/auth"
	"github.com/ipagency/backend/internal/infrastructure/cache"
	"github.com/ipagency/backend/internal/infrastructure/config"
	"github.com/ipagency/backend/internal/infrastructure/logger"
	"github.com/ipagency/backend/internal/infrastructure/persistence"
	"github.com/ipagency/backend/internal/interfaces/http/handler"
	"github.com/ipagency/backend/internal/interfaces/http/middleware"
	"github.com/ipagency/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting IP Agency Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	receiptRepo := persistence.NewGormReceivedPaymentRepository(db.DB)
	writeOffRepo := persistence.NewGormWriteOffRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db)

	// Write-off number allocation: Redis-backed counter when Redis is
	// reachable, otherwise fall back to scanning the ledger for the day's
	// highest sequence. The unique index keeps both paths safe.
	var numberGen finance.WriteOffNumberGenerator
	if redisClient, err := cache.NewRedisClient(cfg.Redis); err != nil {
		log.Warn("Redis unavailable, using database-backed number generation", zap.Error(err))
		numberGen = persistence.NewSequenceNumberGenerator(db.DB, cfg.WriteOff.NumberPrefix)
	} else {
		defer func() {
			_ = redisClient.Close()
		}()
		numberGen = cache.NewRedisNumberAllocator(redisClient, cfg.WriteOff.NumberPrefix)
		log.Info("Redis connected successfully")
	}

	// Application services
	writeOffService := financeapp.NewWriteOffService(uow, numberGen,
		financeapp.WithNumberRetries(cfg.WriteOff.NumberRetries),
		financeapp.WithBatchLockRetry(cfg.WriteOff.BatchLockRetry),
	)
	writeOffQueryService := financeapp.NewWriteOffQueryService(receiptRepo, writeOffRepo)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxy configuration", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORS(cfg.HTTP))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
	}))

	writeOffHandler := handler.NewWriteOffHandler(writeOffService, writeOffQueryService)
	financeRoutes := router.NewDomainGroup("finance", "")
	financeRoutes.POST("/write-offs", writeOffHandler.Create)
	financeRoutes.POST("/write-offs/batch", writeOffHandler.CreateBatch)
	financeRoutes.POST("/write-offs/batch-revert", writeOffHandler.RevertBatch)
	financeRoutes.POST("/write-offs/:id/revert", writeOffHandler.Revert)
	financeRoutes.GET("/write-offs", writeOffHandler.List)
	financeRoutes.GET("/write-offs/:id", writeOffHandler.Get)
	financeRoutes.GET("/receipts/pending", writeOffHandler.ListPendingReceipts)
	financeRoutes.GET("/receipts/:id/balance", writeOffHandler.GetReceiptBalance)
	financeRoutes.GET("/receipts/:id/write-offs", writeOffHandler.ListReceiptWriteOffs)

	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(financeRoutes).Register(systemRoutes)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
