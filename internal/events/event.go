// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"realtydesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// InMemoryBus is re-exported so callers can reference the concrete type.
type InMemoryBus = events.InMemoryBus

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Phone  string    `json:"phone,omitempty"`
	Source string    `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadMerged is published when an inbound submission matched an existing lead
// and was merged into it instead of creating a duplicate.
type LeadMerged struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	MatchedBy     string    `json:"matchedBy"` // "email" or "phone"
	UpdatedFields []string  `json:"updatedFields,omitempty"`
}

func (e LeadMerged) EventName() string { return "leads.lead.merged" }

// IntakeResolved is published when a free-text intake submission has been
// turned into structured facts, whether by the model or the fallback parser.
type IntakeResolved struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	UsedFallback bool      `json:"usedFallback"`
}

func (e IntakeResolved) EventName() string { return "intake.resolved" }

// =============================================================================
// Transaction Domain Events
// =============================================================================

// StageChanged is published when a transaction moves to a new stage.
type StageChanged struct {
	BaseEvent
	TransactionID uuid.UUID `json:"transactionId"`
	LeadID        uuid.UUID `json:"leadId"`
	OldStage      string    `json:"oldStage"`
	NewStage      string    `json:"newStage"`
	Forced        bool      `json:"forced"`
}

func (e StageChanged) EventName() string { return "transactions.stage.changed" }

// TasksChanged is published when a transaction's checklist items change:
// created, completed, reopened, or due dates updated.
type TasksChanged struct {
	BaseEvent
	TransactionID uuid.UUID `json:"transactionId"`
	Stage         string    `json:"stage"`
}

func (e TasksChanged) EventName() string { return "transactions.tasks.changed" }

// ClosingDateSet is published when a transaction's expected closing date is
// set or moved.
type ClosingDateSet struct {
	BaseEvent
	TransactionID uuid.UUID `json:"transactionId"`
	ClosingDate   time.Time `json:"closingDate"`
}

func (e ClosingDateSet) EventName() string { return "transactions.closing_date.set" }

// VoiceMemoTranscribed is published when a voice memo attached to a
// transaction has been transcribed.
type VoiceMemoTranscribed struct {
	BaseEvent
	TransactionID uuid.UUID `json:"transactionId"`
	MemoID        uuid.UUID `json:"memoId"`
	Transcript    string    `json:"transcript"`
}

func (e VoiceMemoTranscribed) EventName() string { return "transactions.voice_memo.transcribed" }

// =============================================================================
// Alert Domain Events
// =============================================================================

// AlertsChanged is published when smart alerts for a transaction are created,
// refreshed, resolved, or dismissed.
type AlertsChanged struct {
	BaseEvent
	TransactionID uuid.UUID `json:"transactionId"`
}

func (e AlertsChanged) EventName() string { return "alerts.changed" }

// AlertEscalated is published when an urgent alert is escalated by email.
type AlertEscalated struct {
	BaseEvent
	AlertID       uuid.UUID `json:"alertId"`
	TransactionID uuid.UUID `json:"transactionId"`
	AlertType     string    `json:"alertType"`
}

func (e AlertEscalated) EventName() string { return "alerts.escalated" }

// =============================================================================
// Notification Domain Events
// =============================================================================

// NotificationsChanged is published when in-app notifications are created,
// read, snoozed, or woken.
type NotificationsChanged struct {
	BaseEvent
	NotificationID *uuid.UUID `json:"notificationId,omitempty"`
}

func (e NotificationsChanged) EventName() string { return "notifications.changed" }

// NudgeIssued is published when the nudge scanner decides a lead or
// transaction needs attention now.
type NudgeIssued struct {
	BaseEvent
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	TransactionID *uuid.UUID `json:"transactionId,omitempty"`
	Reason        string     `json:"reason"`
	Message       string     `json:"message"`
}

func (e NudgeIssued) EventName() string { return "notifications.nudge.issued" }

// =============================================================================
// Property Matching Domain Events
// =============================================================================

// MatchSearchCompleted is published after a property search for a lead
// finishes, including how far the criteria had to be relaxed.
type MatchSearchCompleted struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	ResultCount     int       `json:"resultCount"`
	RelaxationLevel int       `json:"relaxationLevel"`
	UsedFallback    bool      `json:"usedFallback"`
}

func (e MatchSearchCompleted) EventName() string { return "properties.search.completed" }
