package api

import (
	"net/http"
	"testing"

	"github.com/channelmux/channelmux/internal/cron"
)

func TestRunTenantCronEmptyChannelList(t *testing.T) {
	engine, f := newTestRouter()
	f.crons.summary = cron.Summary{Success: true, Results: []cron.ChannelResult{}}

	rec, body := doJSON(t, engine, http.MethodGet, "/api/crons/tenant", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	results, ok := body["tenantResults"].([]interface{})
	if !ok {
		t.Fatalf("tenantResults = %v, want an array", body["tenantResults"])
	}
	if len(results) != 0 {
		t.Errorf("tenantResults has %d entries, want 0", len(results))
	}
}

func TestRunGlobalCronReportsPartialFailure(t *testing.T) {
	engine, f := newTestRouter()
	f.crons.summary = cron.Summary{
		Success: false,
		Results: []cron.ChannelResult{
			{Channel: "janedoe", Success: true, MessageID: "m1"},
			{Channel: "johndoe", Success: false, Error: "insert failed"},
		},
	}

	rec, body := doJSON(t, engine, http.MethodGet, "/api/crons/global", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	results, ok := body["results"].([]interface{})
	if !ok || len(results) != 2 {
		t.Fatalf("results = %v, want 2 entries", body["results"])
	}
}

func TestCronsIndexListsEndpoints(t *testing.T) {
	engine, _ := newTestRouter()

	rec, body := doJSON(t, engine, http.MethodGet, "/api/crons", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	endpoints, ok := body["endpoints"].([]interface{})
	if !ok || len(endpoints) != 3 {
		t.Fatalf("endpoints = %v, want 3 entries", body["endpoints"])
	}
}
