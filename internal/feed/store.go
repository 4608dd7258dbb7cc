package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelmux/channelmux/internal/db"
	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/internal/relay"
	"github.com/channelmux/channelmux/internal/tenant"
	"github.com/channelmux/channelmux/pkg/logging"
)

var (
	// ErrItemNotFound is returned when no feed item exists for an id
	ErrItemNotFound = errors.New("feed item not found")
)

// CreateMessageInput is the payload for creating a feed item
type CreateMessageInput struct {
	Type     models.FeedType       `json:"type"`
	Content  string                `json:"content"`
	Caption  string                `json:"caption"`
	Message  string                `json:"message"`
	Media    []models.MediaItem    `json:"media"`
	Metadata *models.Metadata      `json:"metadata"`
	Poll     *models.PollContent   `json:"poll"`
	Quiz     *models.QuizContent   `json:"quiz"`
	Survey   *models.SurveyContent `json:"survey"`
}

// Validate checks the input against the feed item invariants, including
// the tagged-union rule between type and interactive payload.
func (in *CreateMessageInput) Validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("unknown feed type %q", in.Type)
	}
	ic := models.InteractiveContent{Poll: in.Poll, Quiz: in.Quiz, Survey: in.Survey}
	return ic.CheckAgainstType(in.Type)
}

// BuildItem turns validated input into a persistable feed item, filling
// default metadata and zeroed stats. Each call mints a fresh id, so two
// identical inputs build two distinct rows.
func BuildItem(username string, in *CreateMessageInput) (*models.FeedItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	metadata := models.DefaultMetadata()
	if in.Metadata != nil {
		metadata = *in.Metadata
	}
	media := in.Media
	if media == nil {
		media = []models.MediaItem{}
	}

	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	statsJSON, err := json.Marshal(models.Stats{})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stats: %w", err)
	}

	now := time.Now().UTC()
	item := &models.FeedItem{
		ID:              uuid.NewString(),
		ChannelUsername: username,
		Type:            in.Type,
		Content:         in.Content,
		Caption:         in.Caption,
		Message:         in.Message,
		Media:           mediaJSON,
		Metadata:        metadataJSON,
		Stats:           statsJSON,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if in.Type.Interactive() {
		ic := models.InteractiveContent{Poll: in.Poll, Quiz: in.Quiz, Survey: in.Survey}
		icJSON, err := json.Marshal(ic)
		if err != nil {
			return nil, fmt.Errorf("failed to encode interactive content: %w", err)
		}
		item.InteractiveContent = icJSON
	}

	return item, nil
}

// Store reads and writes feed items against whichever database the
// tenant router selects for a channel.
type Store struct {
	router *tenant.Router
	logger *zap.Logger
}

// NewStore creates a new feed store
func NewStore(router *tenant.Router) *Store {
	return &Store{
		router: router,
		logger: logging.WithComponent("feed-store"),
	}
}

// FetchMessages returns all feed items for a channel, newest first.
// An empty slice means the channel genuinely has no messages; failures
// are returned as errors, never swallowed.
func (s *Store) FetchMessages(ctx context.Context, username string) ([]*models.FeedItem, error) {
	res, err := s.router.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	repo := db.NewFeedRepository(db.NewRepository(res.DB.DB))
	return repo.ListByChannel(ctx, username)
}

// CountMessages returns the number of feed items for a channel
func (s *Store) CountMessages(ctx context.Context, username string) (int64, error) {
	res, err := s.router.Resolve(ctx, username)
	if err != nil {
		return 0, err
	}
	repo := db.NewFeedRepository(db.NewRepository(res.DB.DB))
	return repo.CountByChannel(ctx, username)
}

// CreateMessage inserts a new feed item for the channel and refreshes
// the channel's activity rollup. There is no idempotency key: a client
// retry after a timeout inserts a second row.
func (s *Store) CreateMessage(ctx context.Context, username string, in *CreateMessageInput) (*models.FeedItem, error) {
	res, err := s.router.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	item, err := BuildItem(username, in)
	if err != nil {
		return nil, err
	}

	repo := db.NewRepository(res.DB.DB)
	if err := db.NewFeedRepository(repo).Create(ctx, item); err != nil {
		return nil, err
	}

	if err := s.refreshActivity(ctx, repo, item, res.OwnDB); err != nil {
		// The message is durable; the rollup and its relay are recomputed
		// in full on the next write, so a gap here heals itself.
		s.logger.Warn("Failed to refresh channel activity",
			zap.String("channel", username), zap.Error(err))
	}

	return item, nil
}

// RecordResponse upserts a user's response to an interactive feed item
// and bumps the item's response counter.
func (s *Store) RecordResponse(ctx context.Context, username, feedItemID, userID string, responseType models.FeedType, payload json.RawMessage) (*models.InteractiveResponse, error) {
	res, err := s.router.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	repo := db.NewRepository(res.DB.DB)
	feedRepo := db.NewFeedRepository(repo)

	item, err := feedRepo.GetByID(ctx, feedItemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.ChannelUsername != username {
		return nil, ErrItemNotFound
	}
	if !item.Type.Interactive() {
		return nil, fmt.Errorf("feed item %s does not accept responses", feedItemID)
	}
	if responseType != item.Type {
		return nil, fmt.Errorf("response type %q does not match feed item type %q", responseType, item.Type)
	}

	now := time.Now().UTC()
	response := &models.InteractiveResponse{
		UserID:       userID,
		FeedItemID:   feedItemID,
		ResponseType: responseType,
		Payload:      []byte(payload),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.NewResponseRepository(repo).Upsert(ctx, response); err != nil {
		return nil, err
	}

	var stats models.Stats
	if len(item.Stats) > 0 {
		if err := json.Unmarshal(item.Stats, &stats); err != nil {
			s.logger.Warn("Unreadable stats block, resetting",
				zap.String("item", feedItemID), zap.Error(err))
			stats = models.Stats{}
		}
	}
	stats.Responses++
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := feedRepo.UpdateStats(ctx, feedItemID, statsJSON); err != nil {
		return nil, err
	}

	return response, nil
}

const activityPreviewRunes = 280

// buildActivity rolls one written item into its channel's activity row
func buildActivity(item *models.FeedItem, count int64) *models.ChannelActivity {
	preview := item.Content
	if preview == "" {
		preview = item.Message
	}
	if utf8.RuneCountInString(preview) > activityPreviewRunes {
		preview = string([]rune(preview)[:activityPreviewRunes])
	}

	return &models.ChannelActivity{
		Username:     item.ChannelUsername,
		LastMessage:  preview,
		MessageCount: count,
		LastUpdated:  time.Now().UTC(),
	}
}

// activityEnvelope wraps a rollup as the database-event envelope the
// main deployment's channel-activity webhook consumes
func activityEnvelope(activity *models.ChannelActivity) (*relay.Envelope, error) {
	record, err := json.Marshal(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity: %w", err)
	}
	return &relay.Envelope{
		Type:   relay.EventUpdate,
		Table:  models.ChannelActivity{}.TableName(),
		Record: record,
	}, nil
}

// refreshActivity recomputes the channel activity rollup after a write.
// On a tenant database the rollup is also queued for relay, so the
// global store's copy follows tenant writes.
func (s *Store) refreshActivity(ctx context.Context, repo *db.Repository, item *models.FeedItem, ownDB bool) error {
	count, err := db.NewFeedRepository(repo).CountByChannel(ctx, item.ChannelUsername)
	if err != nil {
		return err
	}

	activity := buildActivity(item, count)
	if err := db.NewActivityRepository(repo).Upsert(ctx, activity); err != nil {
		return err
	}
	if !ownDB {
		return nil
	}

	envelope, err := activityEnvelope(activity)
	if err != nil {
		return err
	}
	return relay.Enqueue(ctx, repo, models.RelayKindChannelActivity, envelope)
}
