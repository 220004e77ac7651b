// Package alerts scans active transactions for risk conditions and keeps a
// deduplicated set of smart alerts per transaction, one per condition type.
package alerts

import (
	"time"

	"github.com/google/uuid"
)

// AlertType is the risk condition an alert reports.
type AlertType string

const (
	TypeOverdueTasks       AlertType = "overdue_tasks"
	TypeDealInactivity     AlertType = "deal_inactivity"
	TypeClosingApproaching AlertType = "closing_approaching"
)

// Status is the alert lifecycle state. A dismissed alert stays dismissed
// even when the generator refreshes it.
type Status string

const (
	StatusActive    Status = "active"
	StatusDismissed Status = "dismissed"
)

// Priority ranks alerts for display and escalation.
type Priority string

const (
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// SmartAlert is one risk signal, keyed uniquely by (transaction, type).
type SmartAlert struct {
	ID            uuid.UUID      `json:"id"`
	TransactionID uuid.UUID      `json:"transactionId"`
	AlertType     AlertType      `json:"alertType"`
	Status        Status         `json:"status"`
	Priority      Priority       `json:"priority"`
	Title         string         `json:"title"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
