package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/channelmux/channelmux/internal/access"
	"github.com/channelmux/channelmux/internal/api"
	"github.com/channelmux/channelmux/internal/cache"
	"github.com/channelmux/channelmux/internal/cron"
	"github.com/channelmux/channelmux/internal/db"
	"github.com/channelmux/channelmux/internal/feed"
	"github.com/channelmux/channelmux/internal/tenant"
	"github.com/channelmux/channelmux/pkg/config"
	"github.com/channelmux/channelmux/pkg/logging"
	"github.com/channelmux/channelmux/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Channelmux API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Global database
	globalDB, err := db.Open(cfg.Database.URL, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to global database", zap.Error(err))
	}
	defer globalDB.Close()

	// Redis cache; nil-safe when disabled
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
	}
	defer redisCache.Close()

	// Tenant routing and domain services
	tenantRouter := tenant.NewRouter(globalDB, cfg.Tenants, redisCache, cfg.Logging.Level)
	defer tenantRouter.Close()

	feedStore := feed.NewStore(tenantRouter)
	workflow := access.NewWorkflow(tenantRouter, globalDB)
	cronRunner := cron.NewRunner(&cfg.Cron, feedStore)

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	apiRouter := api.NewRouter(globalDB, feedStore, workflow, cronRunner)
	apiRouter.SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
