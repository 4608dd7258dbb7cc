package models

import (
	"time"

	"gorm.io/datatypes"
)

// InteractiveResponse links a user to a feed item's interactive payload.
// The composite primary key gives at most one response per (user, item);
// writes go through upsert.
type InteractiveResponse struct {
	UserID       string         `gorm:"primaryKey;type:varchar(64);column:user_id" json:"user_id"`
	FeedItemID   string         `gorm:"primaryKey;type:uuid;column:feed_item_id" json:"feed_item_id"`
	ResponseType FeedType       `gorm:"type:varchar(16);not null;column:response_type" json:"response_type"`
	Payload      datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt    time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for InteractiveResponse
func (InteractiveResponse) TableName() string {
	return "superfeed_responses"
}
