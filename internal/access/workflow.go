package access

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/channelmux/channelmux/internal/db"
	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/internal/relay"
	"github.com/channelmux/channelmux/internal/tenant"
	"github.com/channelmux/channelmux/pkg/logging"
)

var (
	// ErrUserNotFound is returned when the acting user does not exist
	// in the global store
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidTransition is returned for disallowed status changes
	ErrInvalidTransition = errors.New("invalid request status transition")
	// ErrRequestNotFound is returned when no request exists for an id
	ErrRequestNotFound = errors.New("tenant request not found")
)

// RequestTypeChannelAccess is the request type for private channel access
const RequestTypeChannelAccess = "channel_access"

// tenantResolver routes a channel username to the database holding its
// requests; satisfied by *tenant.Router
type tenantResolver interface {
	ResolveForTenantWrite(ctx context.Context, username string) (*tenant.Resolution, error)
}

// requestStore is the tenant-side persistence surface for requests.
// Implementations must pair each write with its relay event so a
// request row can never exist without the outbox row that propagates it.
type requestStore interface {
	GetByUserAndChannel(ctx context.Context, uid, username string) (*models.TenantRequest, error)
	GetByID(ctx context.Context, id string) (*models.TenantRequest, error)
	CreateWithRelay(ctx context.Context, request *models.TenantRequest) error
	TransitionWithRelay(ctx context.Context, request *models.TenantRequest, next models.RequestStatus) error
}

// Global-store surfaces used when applying relayed records
type userGetter interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type requestMirror interface {
	Upsert(ctx context.Context, request *models.TenantRequest) error
}

type activityLister interface {
	ListVisibleForUser(ctx context.Context, uid string) ([]*models.ChannelActivity, error)
}

// Workflow manages access requests for private channels across tenant
// and global stores. Tenant-side writes and their outbox events commit
// together; the global side applies relayed records idempotently via
// upsert.
type Workflow struct {
	router   tenantResolver
	stores   func(gdb *gorm.DB) requestStore
	users    userGetter
	mirror   requestMirror
	activity activityLister
	logger   *zap.Logger
}

// NewWorkflow creates a new access workflow
func NewWorkflow(router *tenant.Router, global *db.DB) *Workflow {
	repo := db.NewRepository(global.DB)
	return &Workflow{
		router:   router,
		stores:   newGormRequestStore,
		users:    db.NewUserRepository(repo),
		mirror:   db.NewTenantRequestRepository(repo),
		activity: db.NewActivityRepository(repo),
		logger:   logging.WithComponent("access-workflow"),
	}
}

// CreateRequest records a user's request for access to a private channel
// in the channel's tenant database, together with the relay to the
// global store. Repeat calls return the existing request.
func (w *Workflow) CreateRequest(ctx context.Context, username, userID string) (*models.TenantRequest, error) {
	res, err := w.router.ResolveForTenantWrite(ctx, username)
	if err != nil {
		return nil, err
	}
	store := w.stores(res.DB.DB)

	existing, err := store.GetByUserAndChannel(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	request := &models.TenantRequest{
		ID:        uuid.NewString(),
		Type:      RequestTypeChannelAccess,
		UID:       userID,
		Username:  username,
		Status:    models.RequestStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateWithRelay(ctx, request); err != nil {
		return nil, err
	}

	w.logger.Info("Access request created",
		zap.String("request", request.ID),
		zap.String("channel", username))
	return request, nil
}

// Transition moves a request from pending to granted or rejected in the
// tenant store, relay included. No reverse transitions exist.
func (w *Workflow) Transition(ctx context.Context, username, requestID string, next models.RequestStatus) (*models.TenantRequest, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	res, err := w.router.ResolveForTenantWrite(ctx, username)
	if err != nil {
		return nil, err
	}
	store := w.stores(res.DB.DB)

	request, err := store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil || request.Username != username {
		return nil, ErrRequestNotFound
	}
	if !request.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, request.Status, next)
	}

	if err := store.TransitionWithRelay(ctx, request, next); err != nil {
		return nil, err
	}
	return request, nil
}

// RelayResult reports both writes performed when applying a relayed
// request: the mirrored request row and the recomputed activity list.
type RelayResult struct {
	Request    *models.TenantRequest     `json:"request"`
	Activities []*models.ChannelActivity `json:"activities"`
}

// ApplyIncoming applies a tenant-side request record to the global
// store: verify the acting user exists, mirror the row, then recompute
// the user's visible channel activity. Unknown users produce
// ErrUserNotFound and no write.
func (w *Workflow) ApplyIncoming(ctx context.Context, record *models.TenantRequest) (*RelayResult, error) {
	if !record.Status.Valid() {
		return nil, fmt.Errorf("unknown request status %q", record.Status)
	}

	user, err := w.users.GetByID(ctx, record.UID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.UpdatedAt = time.Now().UTC()
	if err := w.mirror.Upsert(ctx, record); err != nil {
		return nil, err
	}

	activities, err := w.activity.ListVisibleForUser(ctx, record.UID)
	if err != nil {
		return nil, err
	}

	return &RelayResult{Request: record, Activities: activities}, nil
}

// gormRequestStore runs each request write and its relay enqueue in one
// transaction: a failed enqueue rolls the domain write back instead of
// leaving a request the global store never hears about.
type gormRequestStore struct {
	gdb *gorm.DB
}

func newGormRequestStore(gdb *gorm.DB) requestStore {
	return &gormRequestStore{gdb: gdb}
}

func (s *gormRequestStore) GetByUserAndChannel(ctx context.Context, uid, username string) (*models.TenantRequest, error) {
	return db.NewTenantRequestRepository(db.NewRepository(s.gdb)).GetByUserAndChannel(ctx, uid, username)
}

func (s *gormRequestStore) GetByID(ctx context.Context, id string) (*models.TenantRequest, error) {
	return db.NewTenantRequestRepository(db.NewRepository(s.gdb)).GetByID(ctx, id)
}

func (s *gormRequestStore) CreateWithRelay(ctx context.Context, request *models.TenantRequest) error {
	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		if err := db.NewTenantRequestRepository(repo).Create(ctx, request); err != nil {
			return err
		}
		return enqueueRelay(ctx, repo, relay.EventInsert, request)
	})
}

func (s *gormRequestStore) TransitionWithRelay(ctx context.Context, request *models.TenantRequest, next models.RequestStatus) error {
	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		if err := db.NewTenantRequestRepository(repo).UpdateStatus(ctx, request.ID, next); err != nil {
			return err
		}
		request.Status = next
		request.UpdatedAt = time.Now().UTC()
		return enqueueRelay(ctx, repo, relay.EventUpdate, request)
	})
}

func enqueueRelay(ctx context.Context, repo *db.Repository, eventType string, request *models.TenantRequest) error {
	record, err := json.Marshal(request)
	if err != nil {
		return err
	}
	return relay.Enqueue(ctx, repo, models.RelayKindTenantRequest, &relay.Envelope{
		Type:   eventType,
		Table:  models.TenantRequest{}.TableName(),
		Record: record,
	})
}
