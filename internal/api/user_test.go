package api

import (
	"net/http"
	"testing"

	"github.com/channelmux/channelmux/internal/models"
)

func TestGetLanguageDefaultsToEnglish(t *testing.T) {
	engine, _ := newTestRouter()

	rec, body := doJSON(t, engine, http.MethodGet, "/api/user/language?userId=u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["language"] != string(models.LanguageEnglish) {
		t.Errorf("language = %v, want english", body["language"])
	}
}

func TestGetLanguageRequiresUserID(t *testing.T) {
	engine, _ := newTestRouter()

	rec, _ := doJSON(t, engine, http.MethodGet, "/api/user/language", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSetLanguage(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "valid language",
			body:       map[string]interface{}{"userId": "u1", "language": "telugu"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unsupported language",
			body:       map[string]interface{}{"userId": "u1", "language": "klingon"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing user",
			body:       map[string]interface{}{"language": "hindi"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, f := newTestRouter()

			rec, _ := doJSON(t, engine, http.MethodPost, "/api/user/language", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK && f.prefs.setLanguage != nil {
				t.Error("rejected request must not write a preference")
			}
		})
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	engine, f := newTestRouter()

	rec, body := doJSON(t, engine, http.MethodPost, "/api/user/notification",
		map[string]interface{}{"userId": "u1", "notifications_enabled": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["success"] != true || body["notifications_enabled"] != true {
		t.Errorf("body = %v, want success and notifications_enabled true", body)
	}
	if f.prefs.setNotification == nil || !f.prefs.setNotification.NotificationsEnabled {
		t.Error("preference was not written")
	}
}

func TestSetNotificationRequiresFlag(t *testing.T) {
	engine, _ := newTestRouter()

	rec, _ := doJSON(t, engine, http.MethodPost, "/api/user/notification",
		map[string]interface{}{"userId": "u1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetNotificationDefaultsToDisabled(t *testing.T) {
	engine, _ := newTestRouter()

	rec, body := doJSON(t, engine, http.MethodGet, "/api/user/notification?userId=u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["notifications_enabled"] != false {
		t.Errorf("notifications_enabled = %v, want false", body["notifications_enabled"])
	}
}

func TestGetLocationNotFound(t *testing.T) {
	engine, _ := newTestRouter()

	rec, _ := doJSON(t, engine, http.MethodGet, "/api/user/location?userId=u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSetLocation(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "valid coordinates",
			body:       map[string]interface{}{"userId": "u1", "latitude": 17.38, "longitude": 78.48},
			wantStatus: http.StatusOK,
		},
		{
			name:       "latitude out of range",
			body:       map[string]interface{}{"userId": "u1", "latitude": 91.0, "longitude": 0.0},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing longitude",
			body:       map[string]interface{}{"userId": "u1", "latitude": 17.38},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, f := newTestRouter()

			rec, _ := doJSON(t, engine, http.MethodPost, "/api/user/location", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if f.prefs.setLocation == nil {
					t.Fatal("location was not written")
				}
				if f.prefs.setLocation.Latitude != 17.38 {
					t.Errorf("latitude = %v, want 17.38", f.prefs.setLocation.Latitude)
				}
			}
		})
	}
}
