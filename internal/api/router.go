package api

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/channelmux/channelmux/internal/access"
	"github.com/channelmux/channelmux/internal/cron"
	"github.com/channelmux/channelmux/internal/db"
	"github.com/channelmux/channelmux/internal/feed"
	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/pkg/logging"
)

// ChannelStore reads the channel directory
type ChannelStore interface {
	GetByUsername(ctx context.Context, username string) (*models.Channel, error)
	List(ctx context.Context) ([]*models.Channel, error)
}

// PreferenceStore reads and writes user preference rows
type PreferenceStore interface {
	GetLanguage(ctx context.Context, userID string) (*models.UserLanguage, error)
	SetLanguage(ctx context.Context, pref *models.UserLanguage) error
	GetNotification(ctx context.Context, userID string) (*models.UserNotification, error)
	SetNotification(ctx context.Context, pref *models.UserNotification) error
	GetLocation(ctx context.Context, userID string) (*models.UserLocation, error)
	SetLocation(ctx context.Context, pref *models.UserLocation) error
}

// ActivityStore writes channel activity rollups and last-viewed marks
type ActivityStore interface {
	Upsert(ctx context.Context, activity *models.ChannelActivity) error
	UpsertLastViewed(ctx context.Context, lastViewed *models.LastViewed) error
}

// FeedService reads and writes feed items through the tenant router
type FeedService interface {
	FetchMessages(ctx context.Context, username string) ([]*models.FeedItem, error)
	CountMessages(ctx context.Context, username string) (int64, error)
	CreateMessage(ctx context.Context, username string, in *feed.CreateMessageInput) (*models.FeedItem, error)
	RecordResponse(ctx context.Context, username, feedItemID, userID string, responseType models.FeedType, payload json.RawMessage) (*models.InteractiveResponse, error)
}

// AccessService manages the private channel access workflow
type AccessService interface {
	CreateRequest(ctx context.Context, username, userID string) (*models.TenantRequest, error)
	Transition(ctx context.Context, username, requestID string, next models.RequestStatus) (*models.TenantRequest, error)
	ApplyIncoming(ctx context.Context, record *models.TenantRequest) (*access.RelayResult, error)
}

// CronService runs the scheduled content jobs on demand
type CronService interface {
	RunGlobal(ctx context.Context) cron.Summary
	RunTenant(ctx context.Context) cron.Summary
	RunElon(ctx context.Context) cron.Summary
}

// Router sets up API routes
type Router struct {
	channels ChannelStore
	prefs    PreferenceStore
	activity ActivityStore
	feed     FeedService
	access   AccessService
	crons    CronService
	logger   *zap.Logger
}

// NewRouter creates a new API router. Tenant routing happens inside the
// feed store and access workflow; the directory and preference reads
// here always hit the global database.
func NewRouter(global *db.DB, feedStore *feed.Store, workflow *access.Workflow, cronRunner *cron.Runner) *Router {
	repo := db.NewRepository(global.DB)
	return &Router{
		channels: db.NewChannelRepository(repo),
		prefs:    db.NewPreferenceRepository(repo),
		activity: db.NewActivityRepository(repo),
		feed:     feedStore,
		access:   workflow,
		crons:    cronRunner,
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	api := engine.Group("/api")
	{
		// Self-describing index endpoints
		api.GET("/alerts", r.alertsIndex)
		api.GET("/crons", r.cronsIndex)

		channels := api.Group("/channels")
		{
			channels.GET("", r.listChannels)
			channels.GET("/:username", r.getChannel)
			channels.GET("/:username/messages", r.listMessages)
			channels.POST("/:username/messages", r.createMessage)
			channels.GET("/:username/messages/count", r.countMessages)
			channels.POST("/:username/messages/:id/respond", r.respondToMessage)
			channels.POST("/:username/last-viewed", r.lastViewed)
			channels.POST("/:username/request-access", r.requestAccess)
			channels.POST("/:username/requests/:id", r.transitionRequest)
		}

		user := api.Group("/user")
		{
			user.GET("/language", r.getLanguage)
			user.POST("/language", r.setLanguage)
			user.GET("/notification", r.getNotification)
			user.POST("/notification", r.setNotification)
			user.GET("/location", r.getLocation)
			user.POST("/location", r.setLocation)
		}

		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/tenant-to-main-channel-activity", r.relayChannelActivity)
			webhooks.POST("/tenant-to-main-requests", r.relayTenantRequest)
		}

		crons := api.Group("/crons")
		{
			crons.GET("/global", r.runGlobalCron)
			crons.GET("/tenant", r.runTenantCron)
			crons.GET("/elon", r.runElonCron)
		}
	}
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "channelmux-api",
	})
}

// alertsIndex lists sibling alert endpoints
func (r *Router) alertsIndex(c *gin.Context) {
	c.JSON(200, gin.H{
		"endpoints": []string{
			"/api/webhooks/tenant-to-main-channel-activity",
			"/api/webhooks/tenant-to-main-requests",
		},
	})
}

// cronsIndex lists sibling cron endpoints
func (r *Router) cronsIndex(c *gin.Context) {
	c.JSON(200, gin.H{
		"endpoints": []string{
			"/api/crons/global",
			"/api/crons/tenant",
			"/api/crons/elon",
		},
	})
}
