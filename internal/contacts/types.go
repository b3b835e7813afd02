// Package contacts defines rekindle's persistent records, the SQLite store
// behind them, and the orchestration that turns chat history into
// suggestions.
package contacts

import (
	"errors"
	"time"

	"github.com/rekindle/rekindle/internal/suggest"
)

// ErrNotFound is returned when a record does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

// ErrInvalid wraps input the store refuses to save.
var ErrInvalid = errors.New("invalid input")

// Suggestion sources.
const (
	SourceAI       = suggest.SourceAI
	SourceFallback = suggest.SourceFallback
)

// DefaultUserID is the seeded single-user account.
const DefaultUserID int64 = 1

// User is an account that owns contacts.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Contact is a person the user wants to stay in touch with.
type Contact struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone"`
	Interests         []string   `json:"interests,omitempty"`
	RelationshipType  string     `json:"relationship_type"`
	Notes             string     `json:"notes,omitempty"`
	IsFavorite        bool       `json:"is_favorite"`
	LastContactDate   *time.Time `json:"last_contact_date"`
	LastMessageDate   *time.Time `json:"last_message_date"`
	ReminderFrequency *int       `json:"reminder_frequency"` // days
	PriorityLevel     int        `json:"priority_level"`     // 1-5
}

// ContactPatch holds optional updates; nil fields are left unchanged.
type ContactPatch struct {
	Name              *string    `json:"name,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	Interests         *[]string  `json:"interests,omitempty"`
	RelationshipType  *string    `json:"relationship_type,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	IsFavorite        *bool      `json:"is_favorite,omitempty"`
	LastContactDate   *time.Time `json:"last_contact_date,omitempty"`
	LastMessageDate   *time.Time `json:"last_message_date,omitempty"`
	ReminderFrequency *int       `json:"reminder_frequency,omitempty"`
	PriorityLevel     *int       `json:"priority_level,omitempty"`
}

// Message is a persisted chat line.
type Message struct {
	ID        int64     `json:"id"`
	ContactID int64     `json:"contact_id"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
}

// Suggestion is one generated conversation starter. The newest row per
// contact is the current suggestion.
type Suggestion struct {
	ID           int64     `json:"id"`
	ContactID    int64     `json:"contact_id"`
	Text         string    `json:"suggestion"`
	Topics       []string  `json:"topics,omitempty"`
	Context      string    `json:"context,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// PromptHistory tracks when a user was last nudged to re-export a chat
// for a contact. At most one row exists per (UserID, ContactID).
type PromptHistory struct {
	UserID         int64      `json:"user_id"`
	ContactID      int64      `json:"contact_id"`
	LastPromptedAt time.Time  `json:"last_prompted_at"`
	SnoozedUntil   *time.Time `json:"snoozed_until"`
}

// Settings are per-user preferences.
type Settings struct {
	UserID                  int64  `json:"user_id"`
	ReminderEnabled         bool   `json:"reminder_enabled"`
	ReminderFrequency       int    `json:"reminder_frequency"`
	NotifyNewSuggestions    bool   `json:"notify_new_suggestions"`
	NotifyMissedConnections bool   `json:"notify_missed_connections"`
	PrivacyMode             bool   `json:"privacy_mode"`
	LanguagePreference      string `json:"language_preference"`
	PreferredContactMethod  string `json:"preferred_contact_method"`
}

// SettingsPatch holds optional settings updates.
type SettingsPatch struct {
	ReminderEnabled         *bool   `json:"reminder_enabled,omitempty"`
	ReminderFrequency       *int    `json:"reminder_frequency,omitempty"`
	NotifyNewSuggestions    *bool   `json:"notify_new_suggestions,omitempty"`
	NotifyMissedConnections *bool   `json:"notify_missed_connections,omitempty"`
	PrivacyMode             *bool   `json:"privacy_mode,omitempty"`
	LanguagePreference      *string `json:"language_preference,omitempty"`
	PreferredContactMethod  *string `json:"preferred_contact_method,omitempty"`
}

// DefaultSettings returns the settings a user gets before changing anything.
func DefaultSettings(userID int64, reminderFrequency int) Settings {
	return Settings{
		UserID:                  userID,
		ReminderEnabled:         true,
		ReminderFrequency:       reminderFrequency,
		NotifyNewSuggestions:    true,
		NotifyMissedConnections: true,
		LanguagePreference:      "en",
		PreferredContactMethod:  "whatsapp",
	}
}

// Stats summarises what's stored for a user.
type Stats struct {
	Contacts    int            `json:"contacts"`
	Messages    int            `json:"messages"`
	Suggestions map[string]int `json:"suggestions"` // by source
	Prompts     int            `json:"prompts"`
}
