package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/channelmux/channelmux/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ChannelRepository provides channel-related database operations
type ChannelRepository struct {
	*Repository
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(repo *Repository) *ChannelRepository {
	return &ChannelRepository{Repository: repo}
}

// GetByUsername retrieves a channel by username
func (r *ChannelRepository) GetByUsername(ctx context.Context, username string) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// List retrieves all channels ordered by username
func (r *ChannelRepository) List(ctx context.Context) ([]*models.Channel, error) {
	var channels []*models.Channel
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// Upsert creates or updates a channel
func (r *ChannelRepository) Upsert(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			UpdateAll: true,
		}).
		Create(channel).Error
}

// FeedRepository provides superfeed database operations
type FeedRepository struct {
	*Repository
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(repo *Repository) *FeedRepository {
	return &FeedRepository{Repository: repo}
}

// GetByID retrieves a feed item by id
func (r *FeedRepository) GetByID(ctx context.Context, id string) (*models.FeedItem, error) {
	var item models.FeedItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByChannel retrieves all feed items for a channel, newest first
func (r *FeedRepository) ListByChannel(ctx context.Context, username string) ([]*models.FeedItem, error) {
	var items []*models.FeedItem
	if err := r.db.WithContext(ctx).
		Where("channel_username = ?", username).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountByChannel returns the number of feed items for a channel
func (r *FeedRepository) CountByChannel(ctx context.Context, username string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FeedItem{}).
		Where("channel_username = ?", username).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new feed item. There is intentionally no conflict
// clause here: the id is fresh per call, so identical payloads create
// distinct rows.
func (r *FeedRepository) Create(ctx context.Context, item *models.FeedItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateStats replaces a feed item's stats counters
func (r *FeedRepository) UpdateStats(ctx context.Context, id string, stats []byte) error {
	return r.db.WithContext(ctx).
		Model(&models.FeedItem{}).
		Where("id = ?", id).
		Update("stats", stats).Error
}

// ResponseRepository provides interactive response database operations
type ResponseRepository struct {
	*Repository
}

// NewResponseRepository creates a new response repository
func NewResponseRepository(repo *Repository) *ResponseRepository {
	return &ResponseRepository{Repository: repo}
}

// Upsert writes a user's response, replacing any previous response for
// the same feed item
func (r *ResponseRepository) Upsert(ctx context.Context, response *models.InteractiveResponse) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "feed_item_id"}},
			UpdateAll: true,
		}).
		Create(response).Error
}

// GetByUserAndItem retrieves a user's response to a feed item
func (r *ResponseRepository) GetByUserAndItem(ctx context.Context, userID, feedItemID string) (*models.InteractiveResponse, error) {
	var response models.InteractiveResponse
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND feed_item_id = ?", userID, feedItemID).
		First(&response).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &response, nil
}

// TenantRequestRepository provides tenant request database operations
type TenantRequestRepository struct {
	*Repository
}

// NewTenantRequestRepository creates a new tenant request repository
func NewTenantRequestRepository(repo *Repository) *TenantRequestRepository {
	return &TenantRequestRepository{Repository: repo}
}

// GetByID retrieves a tenant request by id
func (r *TenantRequestRepository) GetByID(ctx context.Context, id string) (*models.TenantRequest, error) {
	var request models.TenantRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetByUserAndChannel retrieves a user's request for a channel
func (r *TenantRequestRepository) GetByUserAndChannel(ctx context.Context, uid, username string) (*models.TenantRequest, error) {
	var request models.TenantRequest
	if err := r.db.WithContext(ctx).
		Where("uid = ? AND username = ?", uid, username).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// Create inserts a new tenant request
func (r *TenantRequestRepository) Create(ctx context.Context, request *models.TenantRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// Upsert creates or replaces a tenant request row. Used by the relay to
// mirror tenant-side state into the global store.
func (r *TenantRequestRepository) Upsert(ctx context.Context, request *models.TenantRequest) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(request).Error
}

// UpdateStatus sets the status of a tenant request
func (r *TenantRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.TenantRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// ActivityRepository provides channel activity database operations
type ActivityRepository struct {
	*Repository
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(repo *Repository) *ActivityRepository {
	return &ActivityRepository{Repository: repo}
}

// GetByUsername retrieves a channel's activity rollup
func (r *ActivityRepository) GetByUsername(ctx context.Context, username string) (*models.ChannelActivity, error) {
	var activity models.ChannelActivity
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// Upsert creates or replaces a channel's activity rollup
func (r *ActivityRepository) Upsert(ctx context.Context, activity *models.ChannelActivity) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			UpdateAll: true,
		}).
		Create(activity).Error
}

// ListVisibleForUser returns activity rollups for channels the user can
// see: public channels plus private channels with a granted request.
func (r *ActivityRepository) ListVisibleForUser(ctx context.Context, uid string) ([]*models.ChannelActivity, error) {
	var activities []*models.ChannelActivity
	err := r.db.WithContext(ctx).
		Joins("JOIN channels ON channels.username = channels_activity.username").
		Where("channels.is_public = ? OR channels.username IN (?)",
			true,
			r.db.Model(&models.TenantRequest{}).
				Select("username").
				Where("uid = ? AND status = ?", uid, models.RequestStatusGranted),
		).
		Order("channels_activity.last_updated DESC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// UpsertLastViewed records when a user last viewed a channel
func (r *ActivityRepository) UpsertLastViewed(ctx context.Context, lastViewed *models.LastViewed) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "username"}},
			UpdateAll: true,
		}).
		Create(lastViewed).Error
}

// UserRepository provides user database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// PreferenceRepository provides user preference database operations
type PreferenceRepository struct {
	*Repository
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(repo *Repository) *PreferenceRepository {
	return &PreferenceRepository{Repository: repo}
}

// GetLanguage retrieves a user's language preference
func (r *PreferenceRepository) GetLanguage(ctx context.Context, userID string) (*models.UserLanguage, error) {
	var pref models.UserLanguage
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

// SetLanguage upserts a user's language preference
func (r *PreferenceRepository) SetLanguage(ctx context.Context, pref *models.UserLanguage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(pref).Error
}

// GetNotification retrieves a user's notification preference
func (r *PreferenceRepository) GetNotification(ctx context.Context, userID string) (*models.UserNotification, error) {
	var pref models.UserNotification
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

// SetNotification upserts a user's notification preference
func (r *PreferenceRepository) SetNotification(ctx context.Context, pref *models.UserNotification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(pref).Error
}

// GetLocation retrieves a user's last reported location
func (r *PreferenceRepository) GetLocation(ctx context.Context, userID string) (*models.UserLocation, error) {
	var pref models.UserLocation
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

// SetLocation upserts a user's last reported location
func (r *PreferenceRepository) SetLocation(ctx context.Context, pref *models.UserLocation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(pref).Error
}

// OutboxRepository provides relay outbox database operations
type OutboxRepository struct {
	*Repository
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(repo *Repository) *OutboxRepository {
	return &OutboxRepository{Repository: repo}
}

// Enqueue inserts a pending relay event
func (r *OutboxRepository) Enqueue(ctx context.Context, event *models.RelayEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListDue returns pending events whose next attempt is due, oldest first
func (r *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.RelayEvent, error) {
	var events []*models.RelayEvent
	if err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.RelayStatusPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// MarkDelivered marks an event as delivered
func (r *OutboxRepository) MarkDelivered(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.RelayEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.RelayStatusDelivered,
			"updated_at": time.Now().UTC(),
		}).Error
}

// Reschedule records a failed attempt and sets the next retry time
func (r *OutboxRepository) Reschedule(ctx context.Context, id string, attempts int, nextAttempt time.Time, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&models.RelayEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":        attempts,
			"next_attempt_at": nextAttempt,
			"last_error":      lastError,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// MarkFailed marks an event as permanently failed
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&models.RelayEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.RelayStatusFailed,
			"attempts":   attempts,
			"last_error": lastError,
			"updated_at": time.Now().UTC(),
		}).Error
}
