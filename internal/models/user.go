package models

import "time"

// User is an account row in the global store. Authentication happens
// upstream; user ids arrive as opaque strings.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64);column:id" json:"id"`
	Username  string    `gorm:"type:varchar(64);not null;default:'';column:username" json:"username"`
	Email     string    `gorm:"type:varchar(255);not null;default:'';column:email" json:"email"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
