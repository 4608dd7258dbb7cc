package models

import "time"

// Language is a user's preferred content language
type Language string

// Supported languages
const (
	LanguageEnglish   Language = "english"
	LanguageTelugu    Language = "telugu"
	LanguageKannada   Language = "kannada"
	LanguageHindi     Language = "hindi"
	LanguageTamil     Language = "tamil"
	LanguageMalayalam Language = "malayalam"
)

// Valid reports whether l is a supported language
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageTelugu, LanguageKannada,
		LanguageHindi, LanguageTamil, LanguageMalayalam:
		return true
	}
	return false
}

// UserLanguage stores a user's language preference
type UserLanguage struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64);column:user_id" json:"user_id"`
	Language  Language  `gorm:"type:varchar(16);not null;column:language" json:"language"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for UserLanguage
func (UserLanguage) TableName() string {
	return "user_language"
}

// UserNotification stores a user's notification preference
type UserNotification struct {
	UserID               string    `gorm:"primaryKey;type:varchar(64);column:user_id" json:"user_id"`
	NotificationsEnabled bool      `gorm:"not null;default:false;column:notifications_enabled" json:"notifications_enabled"`
	UpdatedAt            time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for UserNotification
func (UserNotification) TableName() string {
	return "user_notifications"
}

// UserLocation stores a user's last reported location
type UserLocation struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64);column:user_id" json:"user_id"`
	Latitude  float64   `gorm:"not null;default:0;column:latitude" json:"latitude"`
	Longitude float64   `gorm:"not null;default:0;column:longitude" json:"longitude"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for UserLocation
func (UserLocation) TableName() string {
	return "user_location"
}
