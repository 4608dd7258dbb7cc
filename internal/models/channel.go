package models

import (
	"time"

	"github.com/lib/pq"
)

// Channel represents a named content stream
type Channel struct {
	Username    string `gorm:"primaryKey;type:varchar(64);column:username" json:"username"`
	DisplayName string `gorm:"type:varchar(128);not null;default:'';column:display_name" json:"display_name"`
	Description string `gorm:"type:varchar(5000);not null;default:'';column:description" json:"description"`
	AvatarURL   string `gorm:"type:varchar(1024);not null;default:'';column:avatar_url" json:"avatar_url"`
	Category    string `gorm:"type:varchar(32);not null;default:'';column:category" json:"category"`
	IsPublic    bool   `gorm:"not null;default:true;column:is_public" json:"is_public"`
	Premium     bool   `gorm:"not null;default:false;column:premium" json:"premium"`
	IsRealtime  bool   `gorm:"not null;default:false;column:is_realtime" json:"is_realtime"`
	IsOwnerDB   bool   `gorm:"not null;default:false;column:is_owner_db" json:"is_owner_db"`
	OwnerUserID string `gorm:"type:varchar(64);not null;default:'';column:owner_user_id" json:"owner_user_id"`

	// TenantName is a key into the tenant registry, never a raw credential.
	TenantName string `gorm:"type:varchar(64);not null;default:'';column:tenant_name" json:"-"`

	RelatedChannels pq.StringArray `gorm:"type:text[];column:related_channels" json:"related_channels"`
	CreatedAt       time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Channel
func (Channel) TableName() string {
	return "channels"
}

// UsesOwnDB reports whether the channel's data lives in its own tenant
// database. A channel flagged is_owner_db without a registered tenant
// falls back to the global store.
func (c *Channel) UsesOwnDB() bool {
	return c.IsOwnerDB && c.TenantName != ""
}
