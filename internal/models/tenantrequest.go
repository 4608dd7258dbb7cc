package models

import "time"

// RequestStatus is the lifecycle state of a tenant access request
type RequestStatus string

// Request status constants
const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusGranted  RequestStatus = "granted"
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known request status
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusGranted, RequestStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move to next.
// Only pending requests move, and never back.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if s != RequestStatusPending {
		return false
	}
	return next == RequestStatusGranted || next == RequestStatusRejected
}

// TenantRequest represents a request for access to a private channel
type TenantRequest struct {
	ID        string        `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Type      string        `gorm:"type:varchar(32);not null;column:type" json:"type"`
	UID       string        `gorm:"type:varchar(64);not null;index:tenant_requests_uid_ix;column:uid" json:"uid"`
	Username  string        `gorm:"type:varchar(64);not null;index:tenant_requests_channel_ix;column:username" json:"username"`
	Status    RequestStatus `gorm:"type:varchar(16);not null;default:'pending';column:status" json:"status"`
	CreatedAt time.Time     `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for TenantRequest
func (TenantRequest) TableName() string {
	return "tenant_requests"
}
