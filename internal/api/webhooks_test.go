package api

import (
	"net/http"
	"testing"

	"github.com/channelmux/channelmux/internal/access"
	"github.com/channelmux/channelmux/internal/models"
)

func TestRelayChannelActivity(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]interface{}
		wantStatus  int
		wantSkipped bool
		wantWrite   bool
	}{
		{
			name: "insert is applied",
			body: map[string]interface{}{
				"type":  "INSERT",
				"table": "channels_activity",
				"record": map[string]interface{}{
					"username":      "janedoe",
					"message_count": 3,
				},
			},
			wantStatus: http.StatusOK,
			wantWrite:  true,
		},
		{
			name: "delete is skipped",
			body: map[string]interface{}{
				"type":   "DELETE",
				"table":  "channels_activity",
				"record": map[string]interface{}{"username": "janedoe"},
			},
			wantStatus:  http.StatusOK,
			wantSkipped: true,
		},
		{
			name: "other table is skipped",
			body: map[string]interface{}{
				"type":   "INSERT",
				"table":  "superfeed",
				"record": map[string]interface{}{"username": "janedoe"},
			},
			wantStatus:  http.StatusOK,
			wantSkipped: true,
		},
		{
			name: "missing username is rejected",
			body: map[string]interface{}{
				"type":   "INSERT",
				"table":  "channels_activity",
				"record": map[string]interface{}{"message_count": 3},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, f := newTestRouter()

			rec, body := doJSON(t, engine, http.MethodPost, "/api/webhooks/tenant-to-main-channel-activity", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %v)", rec.Code, tt.wantStatus, body)
			}
			if tt.wantSkipped && body["skipped"] != true {
				t.Errorf("skipped = %v, want true", body["skipped"])
			}
			if tt.wantWrite && f.activity.upserted == nil {
				t.Error("activity was not upserted")
			}
			if !tt.wantWrite && f.activity.upserted != nil {
				t.Error("activity must not be upserted")
			}
		})
	}
}

func TestRelayTenantRequestUnknownUser(t *testing.T) {
	engine, f := newTestRouter()
	f.access.err = access.ErrUserNotFound

	rec, _ := doJSON(t, engine, http.MethodPost, "/api/webhooks/tenant-to-main-requests",
		map[string]interface{}{
			"type":  "UPDATE",
			"table": "tenant_requests",
			"record": map[string]interface{}{
				"id":       "req-1",
				"uid":      "ghost",
				"username": "janedoe",
				"status":   "granted",
			},
		})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRelayTenantRequestApplied(t *testing.T) {
	engine, f := newTestRouter()
	f.access.result = &access.RelayResult{
		Request: &models.TenantRequest{
			ID:       "req-1",
			UID:      "u1",
			Username: "janedoe",
			Status:   models.RequestStatusGranted,
		},
		Activities: []*models.ChannelActivity{{Username: "janedoe"}},
	}

	rec, body := doJSON(t, engine, http.MethodPost, "/api/webhooks/tenant-to-main-requests",
		map[string]interface{}{
			"type":  "UPDATE",
			"table": "tenant_requests",
			"record": map[string]interface{}{
				"id":       "req-1",
				"uid":      "u1",
				"username": "janedoe",
				"status":   "granted",
			},
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %v)", rec.Code, body)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if f.access.incoming == nil || f.access.incoming.ID != "req-1" {
		t.Errorf("incoming record = %+v, want req-1", f.access.incoming)
	}
	if _, ok := body["activities"]; !ok {
		t.Error("response must include refreshed activities")
	}
}

func TestRelayTenantRequestIncompleteRecord(t *testing.T) {
	engine, f := newTestRouter()

	rec, _ := doJSON(t, engine, http.MethodPost, "/api/webhooks/tenant-to-main-requests",
		map[string]interface{}{
			"type":   "INSERT",
			"table":  "tenant_requests",
			"record": map[string]interface{}{"id": "req-1"},
		})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if f.access.incoming != nil {
		t.Error("incomplete record must not reach the workflow")
	}
}
