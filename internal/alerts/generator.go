package alerts

import (
	"fmt"
	"time"

	txdomain "realtydesk_backend/internal/transactions/domain"
)

const (
	overdueGrace        = 3 * 24 * time.Hour
	inactivityThreshold = 7 * 24 * time.Hour
	closingWindow       = 7 * 24 * time.Hour
	closingUrgentWindow = 3 * 24 * time.Hour
)

// evaluateTransaction applies the alert rules to one active transaction and
// returns the candidate alerts to upsert.
func evaluateTransaction(txn txdomain.Transaction, items []txdomain.ChecklistItem, now time.Time) []SmartAlert {
	var candidates []SmartAlert
	if alert, ok := evaluateOverdue(txn, items, now); ok {
		candidates = append(candidates, alert)
	}
	if alert, ok := evaluateInactivity(txn, now); ok {
		candidates = append(candidates, alert)
	}
	if alert, ok := evaluateClosing(txn, items, now); ok {
		candidates = append(candidates, alert)
	}
	return candidates
}

// evaluateOverdue fires when any incomplete item's due date is more than
// three days past. Urgent when an overdue item is itself urgent-priority.
func evaluateOverdue(txn txdomain.Transaction, items []txdomain.ChecklistItem, now time.Time) (SmartAlert, bool) {
	children := txdomain.ChildrenByParent(items)

	var overdueTitles []string
	hasUrgent := false
	for _, item := range items {
		if item.DueDate == nil || txdomain.EffectiveCompleted(item, children[item.ID]) {
			continue
		}
		if now.Sub(*item.DueDate) <= overdueGrace {
			continue
		}
		overdueTitles = append(overdueTitles, item.Title)
		if item.Priority == txdomain.PriorityUrgent {
			hasUrgent = true
		}
	}
	if len(overdueTitles) == 0 {
		return SmartAlert{}, false
	}

	priority := PriorityHigh
	if hasUrgent {
		priority = PriorityUrgent
	}
	return SmartAlert{
		TransactionID: txn.ID,
		AlertType:     TypeOverdueTasks,
		Priority:      priority,
		Title:         "Overdue tasks",
		Message:       fmt.Sprintf("%d task(s) are more than 3 days past due", len(overdueTitles)),
		Details: map[string]any{
			"overdueCount": len(overdueTitles),
			"overdueTasks": overdueTitles,
		},
	}, true
}

// evaluateInactivity fires when the transaction has not been touched for
// seven days or more.
func evaluateInactivity(txn txdomain.Transaction, now time.Time) (SmartAlert, bool) {
	idle := now.Sub(txn.UpdatedAt)
	if idle < inactivityThreshold {
		return SmartAlert{}, false
	}
	days := int(idle.Hours() / 24)
	return SmartAlert{
		TransactionID: txn.ID,
		AlertType:     TypeDealInactivity,
		Priority:      PriorityMedium,
		Title:         "Deal inactivity",
		Message:       fmt.Sprintf("No activity on this deal for %d days", days),
		Details: map[string]any{
			"daysIdle":     days,
			"lastActivity": txn.UpdatedAt,
		},
	}, true
}

// evaluateClosing fires when closing is within the next week and the current
// stage still has incomplete items. Urgent within three days.
func evaluateClosing(txn txdomain.Transaction, items []txdomain.ChecklistItem, now time.Time) (SmartAlert, bool) {
	if txn.ClosingDate == nil {
		return SmartAlert{}, false
	}
	until := txn.ClosingDate.Sub(now)
	if until < 0 || until > closingWindow {
		return SmartAlert{}, false
	}

	children := txdomain.ChildrenByParent(items)
	incomplete := 0
	for _, item := range items {
		if item.Stage != txn.CurrentStage || item.ParentID != nil {
			continue
		}
		if !txdomain.EffectiveCompleted(item, children[item.ID]) {
			incomplete++
		}
	}
	if incomplete == 0 {
		return SmartAlert{}, false
	}

	days := int(until.Hours() / 24)
	priority := PriorityHigh
	if until <= closingUrgentWindow {
		priority = PriorityUrgent
	}
	return SmartAlert{
		TransactionID: txn.ID,
		AlertType:     TypeClosingApproaching,
		Priority:      priority,
		Title:         "Closing date approaching",
		Message:       fmt.Sprintf("Closing in %d day(s) with %d incomplete task(s) in the current stage", days, incomplete),
		Details: map[string]any{
			"daysUntilClosing": days,
			"incompleteTasks":  incomplete,
			"closingDate":      *txn.ClosingDate,
		},
	}, true
}
