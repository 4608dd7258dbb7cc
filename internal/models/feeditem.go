package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// FeedType identifies the presentation/content kind of a feed item
type FeedType string

// Feed type constants
const (
	FeedTypeTweet     FeedType = "tweet"
	FeedTypeInstagram FeedType = "instagram"
	FeedTypeLinkedin  FeedType = "linkedin"
	FeedTypeWhatsapp  FeedType = "whatsapp"
	FeedTypePoll      FeedType = "poll"
	FeedTypeSurvey    FeedType = "survey"
	FeedTypeQuiz      FeedType = "quiz"
	FeedTypeAll       FeedType = "all"
)

// Valid reports whether t is a known feed type
func (t FeedType) Valid() bool {
	switch t {
	case FeedTypeTweet, FeedTypeInstagram, FeedTypeLinkedin, FeedTypeWhatsapp,
		FeedTypePoll, FeedTypeSurvey, FeedTypeQuiz, FeedTypeAll:
		return true
	}
	return false
}

// Interactive reports whether t carries an interactive payload
func (t FeedType) Interactive() bool {
	return t == FeedTypePoll || t == FeedTypeSurvey || t == FeedTypeQuiz
}

// FeedItem represents one row in the superfeed table
type FeedItem struct {
	ID              string   `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	ChannelUsername string   `gorm:"type:varchar(64);not null;index:superfeed_channel_ix;column:channel_username" json:"channel_username"`
	Type            FeedType `gorm:"type:varchar(16);not null;column:type" json:"type"`
	Content         string   `gorm:"type:text;not null;default:'';column:content" json:"content"`
	Caption         string   `gorm:"type:text;not null;default:'';column:caption" json:"caption"`
	Message         string   `gorm:"type:text;not null;default:'';column:message" json:"message"`

	Media              datatypes.JSON `gorm:"column:media" json:"media"`
	Metadata           datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	Stats              datatypes.JSON `gorm:"column:stats" json:"stats"`
	InteractiveContent datatypes.JSON `gorm:"column:interactive_content" json:"interactive_content"`

	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for FeedItem
func (FeedItem) TableName() string {
	return "superfeed"
}

// MediaItem is one entry in a feed item's ordered media list
type MediaItem struct {
	Type         string `json:"type"` // "image" or "video"
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// SectionVisibility controls which sections of a feed item are rendered
type SectionVisibility struct {
	Stats   bool `json:"stats"`
	Content bool `json:"content"`
	Caption bool `json:"caption"`
	Message bool `json:"message"`
}

// Metadata controls presentation of a feed item
type Metadata struct {
	IsCollapsible bool              `json:"isCollapsible"`
	DisplayMode   string            `json:"displayMode"`
	MaxHeight     int               `json:"maxHeight"`
	Visibility    SectionVisibility `json:"visibility"`
	MediaLayout   string            `json:"mediaLayout"`
}

// DefaultMetadata returns the metadata applied when a create request omits it
func DefaultMetadata() Metadata {
	return Metadata{
		IsCollapsible: true,
		DisplayMode:   "default",
		MaxHeight:     300,
		Visibility: SectionVisibility{
			Stats:   true,
			Content: true,
			Caption: true,
			Message: true,
		},
		MediaLayout: "grid",
	}
}

// Stats holds a feed item's aggregate counters
type Stats struct {
	Views     int64 `json:"views"`
	Likes     int64 `json:"likes"`
	Shares    int64 `json:"shares"`
	Responses int64 `json:"responses"`
}

// PollContent is the interactive payload for a poll item
type PollContent struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizQuestion is one question of a quiz
type QuizQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}

// QuizContent is the interactive payload for a quiz item
type QuizContent struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

// SurveyQuestion is one question of a survey
type SurveyQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// SurveyContent is the interactive payload for a survey item
type SurveyContent struct {
	Title     string           `json:"title"`
	Questions []SurveyQuestion `json:"questions"`
}

// InteractiveContent is a tagged union: exactly the variant matching the
// feed item's type may be populated.
type InteractiveContent struct {
	Poll   *PollContent   `json:"poll,omitempty"`
	Quiz   *QuizContent   `json:"quiz,omitempty"`
	Survey *SurveyContent `json:"survey,omitempty"`
}

// Variant returns the populated variant's feed type and the number of
// populated variants.
func (ic *InteractiveContent) Variant() (FeedType, int) {
	if ic == nil {
		return "", 0
	}
	var variant FeedType
	count := 0
	if ic.Poll != nil {
		variant = FeedTypePoll
		count++
	}
	if ic.Quiz != nil {
		variant = FeedTypeQuiz
		count++
	}
	if ic.Survey != nil {
		variant = FeedTypeSurvey
		count++
	}
	if count != 1 {
		return "", count
	}
	return variant, 1
}

// CheckAgainstType validates the union invariant for a feed item of type t
func (ic *InteractiveContent) CheckAgainstType(t FeedType) error {
	variant, count := ic.Variant()
	if !t.Interactive() {
		if count > 0 {
			return fmt.Errorf("feed type %q cannot carry interactive content", t)
		}
		return nil
	}
	if count == 0 {
		return fmt.Errorf("feed type %q requires a %s payload", t, t)
	}
	if count > 1 {
		return fmt.Errorf("interactive content must hold exactly one of poll, quiz, survey")
	}
	if variant != t {
		return fmt.Errorf("interactive content variant %q does not match feed type %q", variant, t)
	}
	return nil
}
