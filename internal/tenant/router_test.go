package tenant

import (
	"testing"

	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/pkg/config"
)

func newTestRouter(tenants ...config.TenantConfig) *Router {
	registry := make(map[string]config.TenantConfig, len(tenants))
	for _, t := range tenants {
		registry[t.Name] = t
	}
	return &Router{registry: registry}
}

func TestTarget(t *testing.T) {
	router := newTestRouter(
		config.TenantConfig{Name: "janedoe", URL: "postgresql://jane@tenant-a/janedoe", APIKey: "anon"},
		config.TenantConfig{Name: "nourl"},
	)

	tests := []struct {
		name       string
		channel    models.Channel
		wantTenant string
		wantOwnDB  bool
	}{
		{
			name:       "owner db with registered tenant",
			channel:    models.Channel{Username: "janedoe", IsOwnerDB: true, TenantName: "janedoe"},
			wantTenant: "janedoe",
			wantOwnDB:  true,
		},
		{
			name:      "not owner db routes global",
			channel:   models.Channel{Username: "johndoe", IsOwnerDB: false},
			wantOwnDB: false,
		},
		{
			// Stray tenant fields must not route away from the global store.
			name:      "not owner db with stray tenant name",
			channel:   models.Channel{Username: "stray", IsOwnerDB: false, TenantName: "janedoe"},
			wantOwnDB: false,
		},
		{
			name:      "owner db without tenant name",
			channel:   models.Channel{Username: "orphan", IsOwnerDB: true},
			wantOwnDB: false,
		},
		{
			name:      "owner db with unregistered tenant",
			channel:   models.Channel{Username: "ghost", IsOwnerDB: true, TenantName: "missing"},
			wantOwnDB: false,
		},
		{
			name:      "owner db with registered tenant missing url",
			channel:   models.Channel{Username: "nourl", IsOwnerDB: true, TenantName: "nourl"},
			wantOwnDB: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenantCfg, ownDB := router.target(&tt.channel)
			if ownDB != tt.wantOwnDB {
				t.Errorf("target() ownDB = %v, want %v", ownDB, tt.wantOwnDB)
			}
			if ownDB && tenantCfg.Name != tt.wantTenant {
				t.Errorf("target() tenant = %q, want %q", tenantCfg.Name, tt.wantTenant)
			}
		})
	}
}

func TestChannelCacheKey(t *testing.T) {
	first := channelCacheKey("janedoe")
	if first != channelCacheKey("janedoe") {
		t.Error("cache key must be stable for a username")
	}
	if first == channelCacheKey("johndoe") {
		t.Error("cache keys must differ per username")
	}
	if len(first) != 32 {
		t.Errorf("cache key length = %d, want 32 (md5 hex)", len(first))
	}
}

func TestChannelUsesOwnDB(t *testing.T) {
	tests := []struct {
		name     string
		channel  models.Channel
		expected bool
	}{
		{"owner db with tenant", models.Channel{IsOwnerDB: true, TenantName: "acme"}, true},
		{"owner db without tenant", models.Channel{IsOwnerDB: true}, false},
		{"global channel", models.Channel{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.channel.UsesOwnDB(); got != tt.expected {
				t.Errorf("UsesOwnDB() = %v, want %v", got, tt.expected)
			}
		})
	}
}
