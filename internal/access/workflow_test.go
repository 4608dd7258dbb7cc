package access

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/channelmux/channelmux/internal/db"
	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/internal/tenant"
)

func TestRequestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.RequestStatus
		to      models.RequestStatus
		allowed bool
	}{
		{"pending to granted", models.RequestStatusPending, models.RequestStatusGranted, true},
		{"pending to rejected", models.RequestStatusPending, models.RequestStatusRejected, true},
		{"pending to pending", models.RequestStatusPending, models.RequestStatusPending, false},
		{"granted to rejected", models.RequestStatusGranted, models.RequestStatusRejected, false},
		{"granted to pending", models.RequestStatusGranted, models.RequestStatusPending, false},
		{"rejected to granted", models.RequestStatusRejected, models.RequestStatusGranted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestRequestStatusValid(t *testing.T) {
	valid := []models.RequestStatus{
		models.RequestStatusPending,
		models.RequestStatusGranted,
		models.RequestStatusRejected,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("Valid(%s) = false, want true", s)
		}
	}
	for _, s := range []models.RequestStatus{"", "maybe", "GRANTED"} {
		if s.Valid() {
			t.Errorf("Valid(%q) = true, want false", s)
		}
	}
}

type fakeResolver struct {
	res *tenant.Resolution
	err error
}

func (f *fakeResolver) ResolveForTenantWrite(ctx context.Context, username string) (*tenant.Resolution, error) {
	return f.res, f.err
}

type fakeRequestStore struct {
	existing      *models.TenantRequest
	byID          *models.TenantRequest
	createErr     error
	transitionErr error

	created      *models.TenantRequest
	transitioned models.RequestStatus
}

func (f *fakeRequestStore) GetByUserAndChannel(ctx context.Context, uid, username string) (*models.TenantRequest, error) {
	return f.existing, nil
}

func (f *fakeRequestStore) GetByID(ctx context.Context, id string) (*models.TenantRequest, error) {
	return f.byID, nil
}

func (f *fakeRequestStore) CreateWithRelay(ctx context.Context, request *models.TenantRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = request
	return nil
}

func (f *fakeRequestStore) TransitionWithRelay(ctx context.Context, request *models.TenantRequest, next models.RequestStatus) error {
	if f.transitionErr != nil {
		return f.transitionErr
	}
	f.transitioned = next
	request.Status = next
	return nil
}

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.user, nil
}

type fakeMirror struct {
	upserted *models.TenantRequest
}

func (f *fakeMirror) Upsert(ctx context.Context, request *models.TenantRequest) error {
	f.upserted = request
	return nil
}

type fakeActivityLister struct {
	list []*models.ChannelActivity
}

func (f *fakeActivityLister) ListVisibleForUser(ctx context.Context, uid string) ([]*models.ChannelActivity, error) {
	return f.list, nil
}

type workflowFixtures struct {
	store    *fakeRequestStore
	users    *fakeUsers
	mirror   *fakeMirror
	activity *fakeActivityLister
}

func newTestWorkflow() (*Workflow, *workflowFixtures) {
	f := &workflowFixtures{
		store:    &fakeRequestStore{},
		users:    &fakeUsers{},
		mirror:   &fakeMirror{},
		activity: &fakeActivityLister{},
	}
	w := &Workflow{
		router: &fakeResolver{res: &tenant.Resolution{
			Channel: &models.Channel{Username: "janedoe", IsOwnerDB: true, TenantName: "janedoe"},
			DB:      &db.DB{},
			Tenant:  "janedoe",
			OwnDB:   true,
		}},
		stores:   func(gdb *gorm.DB) requestStore { return f.store },
		users:    f.users,
		mirror:   f.mirror,
		activity: f.activity,
		logger:   zap.NewNop(),
	}
	return w, f
}

func TestCreateRequestCreatesPending(t *testing.T) {
	w, f := newTestWorkflow()

	request, err := w.CreateRequest(context.Background(), "janedoe", "u1")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if f.store.created == nil {
		t.Fatal("request was not written")
	}
	if request.Status != models.RequestStatusPending {
		t.Errorf("Status = %s, want pending", request.Status)
	}
	if request.Type != RequestTypeChannelAccess {
		t.Errorf("Type = %s, want %s", request.Type, RequestTypeChannelAccess)
	}
	if request.ID == "" {
		t.Error("request must get an id")
	}
}

func TestCreateRequestReturnsExisting(t *testing.T) {
	w, f := newTestWorkflow()
	f.store.existing = &models.TenantRequest{ID: "req-1", UID: "u1", Username: "janedoe", Status: models.RequestStatusPending}

	request, err := w.CreateRequest(context.Background(), "janedoe", "u1")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if request.ID != "req-1" {
		t.Errorf("ID = %s, want req-1", request.ID)
	}
	if f.store.created != nil {
		t.Error("existing request must not be recreated")
	}
}

func TestCreateRequestFailsWhenRelayNotQueued(t *testing.T) {
	// The request row and its outbox event commit together; a failed
	// enqueue must fail the whole operation, not silently drop the relay.
	w, f := newTestWorkflow()
	f.store.createErr = errors.New("relay enqueue failed")

	request, err := w.CreateRequest(context.Background(), "janedoe", "u1")
	if err == nil {
		t.Fatal("CreateRequest() should surface the write failure")
	}
	if request != nil {
		t.Errorf("request = %+v, want nil on failure", request)
	}
}

func TestTransitionAppliesGrant(t *testing.T) {
	w, f := newTestWorkflow()
	f.store.byID = &models.TenantRequest{ID: "req-1", UID: "u1", Username: "janedoe", Status: models.RequestStatusPending}

	request, err := w.Transition(context.Background(), "janedoe", "req-1", models.RequestStatusGranted)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if request.Status != models.RequestStatusGranted {
		t.Errorf("Status = %s, want granted", request.Status)
	}
	if f.store.transitioned != models.RequestStatusGranted {
		t.Errorf("written status = %s, want granted", f.store.transitioned)
	}
}

func TestTransitionRejectsSettledRequest(t *testing.T) {
	w, f := newTestWorkflow()
	f.store.byID = &models.TenantRequest{ID: "req-1", UID: "u1", Username: "janedoe", Status: models.RequestStatusGranted}

	_, err := w.Transition(context.Background(), "janedoe", "req-1", models.RequestStatusRejected)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Transition() error = %v, want ErrInvalidTransition", err)
	}
	if f.store.transitioned != "" {
		t.Error("settled request must not be rewritten")
	}
}

func TestTransitionWrongChannel(t *testing.T) {
	w, f := newTestWorkflow()
	f.store.byID = &models.TenantRequest{ID: "req-1", UID: "u1", Username: "otherchannel", Status: models.RequestStatusPending}

	_, err := w.Transition(context.Background(), "janedoe", "req-1", models.RequestStatusGranted)
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("Transition() error = %v, want ErrRequestNotFound", err)
	}
}

func TestTransitionFailureSurfaces(t *testing.T) {
	w, f := newTestWorkflow()
	f.store.byID = &models.TenantRequest{ID: "req-1", UID: "u1", Username: "janedoe", Status: models.RequestStatusPending}
	f.store.transitionErr = errors.New("relay enqueue failed")

	_, err := w.Transition(context.Background(), "janedoe", "req-1", models.RequestStatusGranted)
	if err == nil {
		t.Fatal("Transition() should surface the write failure")
	}
}

func TestApplyIncomingUnknownUserNoWrite(t *testing.T) {
	w, f := newTestWorkflow()
	f.users.user = nil

	_, err := w.ApplyIncoming(context.Background(), &models.TenantRequest{
		ID: "req-1", UID: "ghost", Username: "janedoe", Status: models.RequestStatusGranted,
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ApplyIncoming() error = %v, want ErrUserNotFound", err)
	}
	if f.mirror.upserted != nil {
		t.Error("unknown user must not cause an upsert")
	}
}

func TestApplyIncomingMirrorsAndLists(t *testing.T) {
	w, f := newTestWorkflow()
	f.users.user = &models.User{ID: "u1", Username: "user-one"}
	f.activity.list = []*models.ChannelActivity{{Username: "janedoe", MessageCount: 3}}

	result, err := w.ApplyIncoming(context.Background(), &models.TenantRequest{
		ID: "req-1", UID: "u1", Username: "janedoe", Status: models.RequestStatusGranted,
	})
	if err != nil {
		t.Fatalf("ApplyIncoming() error = %v", err)
	}
	if f.mirror.upserted == nil || f.mirror.upserted.ID != "req-1" {
		t.Fatalf("mirrored request = %+v, want req-1", f.mirror.upserted)
	}
	if len(result.Activities) != 1 || result.Activities[0].Username != "janedoe" {
		t.Errorf("Activities = %+v, want janedoe rollup", result.Activities)
	}
	if result.Request.UpdatedAt.IsZero() {
		t.Error("mirrored request must be stamped")
	}
}

func TestApplyIncomingRejectsUnknownStatus(t *testing.T) {
	w, f := newTestWorkflow()
	f.users.user = &models.User{ID: "u1"}

	_, err := w.ApplyIncoming(context.Background(), &models.TenantRequest{
		ID: "req-1", UID: "u1", Username: "janedoe", Status: "maybe",
	})
	if err == nil {
		t.Fatal("ApplyIncoming() should reject unknown statuses")
	}
	if f.mirror.upserted != nil {
		t.Error("invalid record must not cause an upsert")
	}
}
