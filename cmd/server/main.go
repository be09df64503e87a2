package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	barterapp "github.com/swapmarket/backend/internal/application/barter"
	orderapp "github.com/swapmarket/backend/internal/application/order"
	"github.com/swapmarket/backend/internal/domain/shared"
	"github.com/swapmarket/backend/internal/infrastructure/auth"
	"github.com/swapmarket/backend/internal/infrastructure/cache"
	"github.com/swapmarket/backend/internal/infrastructure/config"
	"github.com/swapmarket/backend/internal/infrastructure/event"
	"github.com/swapmarket/backend/internal/infrastructure/logger"
	"github.com/swapmarket/backend/internal/infrastructure/persistence"
	"github.com/swapmarket/backend/internal/interfaces/http/handler"
	"github.com/swapmarket/backend/internal/interfaces/http/middleware"
	"github.com/swapmarket/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting SwapMarket Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
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

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	tradeRepo := persistence.NewGormTradeRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRecordRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Transaction scopes for settlement and fulfillment
	settlementScope := persistence.NewGormSettlementTransactionScope(db.DB)
	fulfillmentScope := persistence.NewGormFulfillmentTransactionScope(db.DB)

	// Initialize application services
	settlementService := barterapp.NewSettlementService(tradeRepo, settlementScope)
	tradeService := barterapp.NewTradeService(tradeRepo, inventoryRepo, settlementService)
	fulfillmentService := orderapp.NewFulfillmentService(orderRepo, inventoryRepo, fulfillmentScope)

	// Event bus for domain event propagation
	if cfg.Event.Enabled {
		eventBus := event.NewInMemoryEventBus(log)
		if err := eventBus.Start(context.Background()); err != nil {
			log.Fatal("Failed to start event bus", zap.Error(err))
		}
		defer func() {
			if err := eventBus.Stop(context.Background()); err != nil {
				log.Error("Error stopping event bus", zap.Error(err))
			}
		}()

		settlementService.SetEventPublisher(eventBus)
		tradeService.SetEventPublisher(eventBus)
		fulfillmentService.SetEventPublisher(eventBus)
		log.Info("Event bus started")
	}

	// Idempotency store for partial fulfillment fencing (Redis with
	// in-memory fallback for local development)
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	fulfillmentService.SetIdempotencyStore(idempotencyStore, shared.IdempotencyConfig{
		TTL:     cfg.Event.IdempotencyTTL,
		Enabled: true,
	})

	// JWT service for request authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	tradeHandler := handler.NewTradeHandler(tradeService)
	orderHandler := handler.NewOrderHandler(fulfillmentService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging,
	// security headers, CORS.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health endpoints (outside API versioning, unauthenticated)
	engine.GET("/health", healthHandler(db))
	engine.GET("/ready", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Barter trade routes
	tradeRoutes := router.NewDomainGroup("trades", "/trades")
	tradeRoutes.POST("/initiate", tradeHandler.Initiate)
	tradeRoutes.POST("/update", tradeHandler.Update)
	tradeRoutes.POST("/accept", tradeHandler.Accept)
	tradeRoutes.POST("/reject", tradeHandler.Reject)
	tradeRoutes.POST("/cancel", tradeHandler.Cancel)
	tradeRoutes.POST("/complete", tradeHandler.Complete)
	tradeRoutes.POST("/shipping/update", tradeHandler.UpdateShipping)
	tradeRoutes.POST("/confirm-delivery", tradeHandler.ConfirmDelivery)
	tradeRoutes.GET("", tradeHandler.List)
	tradeRoutes.GET("/logistics", tradeHandler.ListLogistics)
	tradeRoutes.GET("/completed", tradeHandler.ListCompleted)
	tradeRoutes.GET("/received-products", tradeHandler.ListReceivedProducts)
	tradeRoutes.GET("/:id", tradeHandler.GetByID)

	// Order fulfillment routes
	orderRoutes := router.NewDomainGroup("order", "/order")
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.POST("/confirm-reject", orderHandler.ConfirmOrReject)
	orderRoutes.POST("/process-partial", orderHandler.ProcessPartial)
	orderRoutes.GET("/incoming", orderHandler.ListForSeller)
	orderRoutes.GET("/outgoing", orderHandler.ListForBuyer)
	orderRoutes.GET("/:id", orderHandler.GetByID)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(tradeRoutes).
		Register(orderRoutes).
		Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
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
