package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/sbpremium/gifts-backend/pkg/enums"
)

const (
	DefaultRetention      = 500
	DefaultRepeatInterval = 15 * time.Minute
	MinAnnouncementLength = 5

	defaultAnnouncementTitle = "Announcement"
	repeatingTitlePrefix     = "(Repeating) "
)

// Notification is one feed entry.
type Notification struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Author    string                 `json:"author"`
	Timestamp time.Time              `json:"timestamp"`
	Repeating bool                   `json:"repeating,omitempty"`
}

// Entry is the caller-supplied part of a notification.
type Entry struct {
	Type    enums.NotificationType
	Title   string
	Message string
	Author  string
}

// AnnouncementState is the persistent announcement singleton.
type AnnouncementState struct {
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Author   string    `json:"author"`
	LastSent time.Time `json:"lastSent"`
	IsActive bool      `json:"isActive"`
}

// DueForRepeat reports whether a repeating copy should be emitted at now.
func DueForRepeat(state AnnouncementState, now time.Time, interval time.Duration) bool {
	return state.IsActive && now.Sub(state.LastSent) > interval
}

// Advance returns state with the timer reset to now.
func Advance(state AnnouncementState, now time.Time) AnnouncementState {
	state.LastSent = now
	return state
}

// AnnounceRequest is the admin input to Announce.
type AnnounceRequest struct {
	Title      string
	Message    string
	Persistent bool
}
