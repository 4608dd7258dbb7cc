package models

import (
	"time"

	"gorm.io/datatypes"
)

// Relay event kinds
const (
	RelayKindTenantRequest   = "tenant_request"
	RelayKindChannelActivity = "channel_activity"
)

// Relay event statuses
const (
	RelayStatusPending   = "pending"
	RelayStatusDelivered = "delivered"
	RelayStatusFailed    = "failed"
)

// RelayEvent is one row of the relay outbox. A status change written to a
// tenant store is recorded here and delivered to the global store by the
// outbox worker, with retries, instead of a single-attempt webhook.
type RelayEvent struct {
	ID            string         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Kind          string         `gorm:"type:varchar(32);not null;column:kind" json:"kind"`
	Payload       datatypes.JSON `gorm:"column:payload" json:"payload"`
	Status        string         `gorm:"type:varchar(16);not null;default:'pending';index:relay_outbox_status_ix;column:status" json:"status"`
	Attempts      int            `gorm:"not null;default:0;column:attempts" json:"attempts"`
	NextAttemptAt time.Time      `gorm:"not null;index:relay_outbox_due_ix;column:next_attempt_at" json:"next_attempt_at"`
	LastError     string         `gorm:"type:text;not null;default:'';column:last_error" json:"last_error"`
	CreatedAt     time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for RelayEvent
func (RelayEvent) TableName() string {
	return "relay_outbox"
}
