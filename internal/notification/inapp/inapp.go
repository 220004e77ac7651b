// Package inapp stores the in-app notification envelope: unread, read, or
// snoozed until a wake time.
package inapp

import (
	"time"

	"github.com/google/uuid"
)

// Status is the notification lifecycle state.
type Status string

const (
	StatusUnread  Status = "unread"
	StatusRead    Status = "read"
	StatusSnoozed Status = "snoozed"
)

// Notification is a generic in-app message envelope. DedupKey, when set,
// suppresses duplicate creation for the same key.
type Notification struct {
	ID          uuid.UUID      `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Meta        map[string]any `json:"meta,omitempty"`
	Status      Status         `json:"status"`
	SnoozeUntil *time.Time     `json:"snoozeUntil,omitempty"`
	DedupKey    *string        `json:"-"`
	ReadAt      *time.Time     `json:"readAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
