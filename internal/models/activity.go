package models

import "time"

// ChannelActivity is a per-channel rollup cached for cheap listing.
// It is recomputed on each message write, not derived transactionally,
// so it can drift from the message table.
type ChannelActivity struct {
	Username     string    `gorm:"primaryKey;type:varchar(64);column:username" json:"username"`
	LastMessage  string    `gorm:"type:text;not null;default:'';column:last_message" json:"last_message"`
	MessageCount int64     `gorm:"not null;default:0;column:message_count" json:"message_count"`
	LastUpdated  time.Time `gorm:"not null;column:last_updated" json:"last_updated"`
}

// TableName specifies the table name for ChannelActivity
func (ChannelActivity) TableName() string {
	return "channels_activity"
}

// LastViewed records when a user last viewed a channel and the message
// count at that moment.
type LastViewed struct {
	UserID       string    `gorm:"primaryKey;type:varchar(64);column:user_id" json:"user_id"`
	Username     string    `gorm:"primaryKey;type:varchar(64);column:username" json:"username"`
	MessageCount int64     `gorm:"not null;default:0;column:message_count" json:"message_count"`
	ViewedAt     time.Time `gorm:"not null;column:viewed_at" json:"viewed_at"`
}

// TableName specifies the table name for LastViewed
func (LastViewed) TableName() string {
	return "channels_last_viewed"
}
