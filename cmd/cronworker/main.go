package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/channelmux/channelmux/internal/cache"
	"github.com/channelmux/channelmux/internal/cron"
	"github.com/channelmux/channelmux/internal/db"
	"github.com/channelmux/channelmux/internal/feed"
	"github.com/channelmux/channelmux/internal/relay"
	"github.com/channelmux/channelmux/internal/tenant"
	"github.com/channelmux/channelmux/pkg/config"
	"github.com/channelmux/channelmux/pkg/logging"
	"github.com/channelmux/channelmux/pkg/telemetry"
)

// The cron worker runs the scheduled content jobs on an interval and
// drains the relay outbox of the database it is pointed at. On a tenant
// deployment the outbox relays to the main webhook endpoint; on the
// global deployment the relay worker is idle unless events are queued.
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
	logger.Info("Starting Channelmux Cron Worker")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Database
	database, err := db.Open(cfg.Database.URL, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Redis cache; nil-safe when disabled
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
	}
	defer redisCache.Close()

	tenantRouter := tenant.NewRouter(database, cfg.Tenants, redisCache, cfg.Logging.Level)
	defer tenantRouter.Close()

	feedStore := feed.NewStore(tenantRouter)
	cronRunner := cron.NewRunner(&cfg.Cron, feedStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cron loop
	go func() {
		if err := cronRunner.Loop(ctx, cfg.Cron.RunInterval); err != nil && err != context.Canceled {
			logger.Error("Cron loop stopped", zap.Error(err))
		}
	}()

	// Outbox relay worker
	if cfg.Relay.MainWebhookURL != "" {
		worker := relay.NewWorker(
			db.NewRepository(database.DB),
			relay.NewClient(cfg.Relay.MainWebhookURL),
			&cfg.Relay,
		)
		go func() {
			if err := worker.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("Outbox worker stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Info("No main webhook URL configured, outbox worker disabled")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down cron worker...")
	cancel()
	logger.Info("Cron worker exited")
}
