package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/channelmux/channelmux/internal/cache"
	"github.com/channelmux/channelmux/internal/db"
	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/pkg/config"
	"github.com/channelmux/channelmux/pkg/logging"
)

var (
	// ErrChannelNotFound is returned when no channel exists for a username
	ErrChannelNotFound = errors.New("channel not found")
	// ErrNoTenantDB is returned when an operation requires a tenant
	// database but the channel has none configured
	ErrNoTenantDB = errors.New("channel does not support tenant operations")
)

const channelCacheTTL = time.Minute

// Resolution is the outcome of routing a channel username to a database
type Resolution struct {
	Channel *models.Channel
	DB      *db.DB
	Tenant  string // registry key, empty for the global store
	OwnDB   bool
}

// Router resolves channel usernames to database connections. Tenant
// credentials come from the config registry, loaded at startup; tenant
// handles are opened lazily and reused.
type Router struct {
	global   *db.DB
	registry map[string]config.TenantConfig
	logLevel string
	cache    *cache.Cache
	logger   *zap.Logger

	mu    sync.Mutex
	conns map[string]*db.DB

	// openFn is swapped in tests
	openFn func(url, logLevel string) (*db.DB, error)
}

// NewRouter creates a new tenant router
func NewRouter(global *db.DB, tenants []config.TenantConfig, redisCache *cache.Cache, logLevel string) *Router {
	registry := make(map[string]config.TenantConfig, len(tenants))
	for _, t := range tenants {
		registry[t.Name] = t
	}
	return &Router{
		global:   global,
		registry: registry,
		logLevel: logLevel,
		cache:    redisCache,
		logger:   logging.WithComponent("tenant-router"),
		conns:    make(map[string]*db.DB),
		openFn:   db.Open,
	}
}

// Resolve looks up the channel for username and returns the database to
// use for its reads and writes.
func (r *Router) Resolve(ctx context.Context, username string) (*Resolution, error) {
	channel, err := r.lookupChannel(ctx, username)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}

	tenantCfg, ok := r.target(channel)
	if !ok {
		return &Resolution{Channel: channel, DB: r.global}, nil
	}

	conn, err := r.tenantConn(tenantCfg)
	if err != nil {
		return nil, err
	}
	return &Resolution{Channel: channel, DB: conn, Tenant: tenantCfg.Name, OwnDB: true}, nil
}

// ResolveForTenantWrite is Resolve, but fails with ErrNoTenantDB when the
// channel is not backed by its own database. Used by operations that only
// make sense against a tenant store, such as access requests.
func (r *Router) ResolveForTenantWrite(ctx context.Context, username string) (*Resolution, error) {
	res, err := r.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	if !res.OwnDB {
		return nil, ErrNoTenantDB
	}
	return res, nil
}

// target applies the decision rule: a channel routes to its tenant only
// when is_owner_db is set AND the tenant is registered with a non-empty
// URL. Stray tenant fields on a non-owner-db channel never route away
// from the global store.
func (r *Router) target(channel *models.Channel) (config.TenantConfig, bool) {
	if !channel.IsOwnerDB || channel.TenantName == "" {
		return config.TenantConfig{}, false
	}
	tenantCfg, ok := r.registry[channel.TenantName]
	if !ok || tenantCfg.URL == "" {
		return config.TenantConfig{}, false
	}
	return tenantCfg, true
}

func (r *Router) tenantConn(tenantCfg config.TenantConfig) (*db.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[tenantCfg.Name]; ok {
		return conn, nil
	}
	conn, err := r.openFn(tenantCfg.URL, r.logLevel)
	if err != nil {
		return nil, err
	}
	r.conns[tenantCfg.Name] = conn
	r.logger.Info("Tenant connection opened", zap.String("tenant", tenantCfg.Name))
	return conn, nil
}

// channelCacheKey builds the directory cache key for a username
func channelCacheKey(username string) string {
	return cache.HashKey("channel", username)
}

// lookupChannel reads the channel directory, going through the redis
// cache when one is configured.
func (r *Router) lookupChannel(ctx context.Context, username string) (*models.Channel, error) {
	key := channelCacheKey(username)
	if cached, err := r.cache.Get(key); err == nil {
		var channel models.Channel
		if err := json.Unmarshal([]byte(cached), &channel); err == nil {
			return &channel, nil
		}
	}

	repo := db.NewChannelRepository(db.NewRepository(r.global.DB))
	channel, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, nil
	}

	if encoded, err := json.Marshal(channel); err == nil {
		if err := r.cache.Set(key, string(encoded), channelCacheTTL); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
			r.logger.Warn("Failed to cache channel", zap.String("channel", username), zap.Error(err))
		}
	}
	return channel, nil
}

// Invalidate drops a channel from the directory cache
func (r *Router) Invalidate(username string) {
	_ = r.cache.Delete(channelCacheKey(username))
}

// Close closes all lazily opened tenant connections
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, conn := range r.conns {
		if err := conn.Close(); err != nil {
			r.logger.Warn("Failed to close tenant connection", zap.String("tenant", name), zap.Error(err))
		}
	}
	r.conns = make(map[string]*db.DB)
}
