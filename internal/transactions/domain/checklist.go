package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the workflow state of a checklist item.
type ItemStatus string

const (
	StatusNotStarted ItemStatus = "not_started"
	StatusInProgress ItemStatus = "in_progress"
	StatusCompleted  ItemStatus = "completed"
	StatusBlocked    ItemStatus = "blocked"
)

// ValidItemStatus reports whether s is a known checklist status.
func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// ItemPriority ranks checklist items for alerting.
type ItemPriority string

const (
	PriorityLow    ItemPriority = "low"
	PriorityMedium ItemPriority = "medium"
	PriorityHigh   ItemPriority = "high"
	PriorityUrgent ItemPriority = "urgent"
)

// ChecklistItem is a unit of work scoped to one transaction stage. At most
// one level of nesting: a child may not itself have children.
type ChecklistItem struct {
	ID            uuid.UUID    `json:"id"`
	TransactionID uuid.UUID    `json:"transactionId"`
	Stage         Stage        `json:"stage"`
	ParentID      *uuid.UUID   `json:"parentId,omitempty"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        ItemStatus   `json:"status"`
	Priority      ItemPriority `json:"priority"`
	Weight        float64      `json:"weight"`
	Dependencies  []uuid.UUID  `json:"dependencies,omitempty"`
	StageOrder    int          `json:"stageOrder"`
	DueDate       *time.Time   `json:"dueDate,omitempty"`
	VoiceMemoKey  *string      `json:"voiceMemoKey,omitempty"`
	Transcript    *string      `json:"transcript,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// EffectiveWeight treats missing or non-positive weights as 1.
func (i ChecklistItem) EffectiveWeight() float64 {
	if i.Weight <= 0 {
		return 1
	}
	return i.Weight
}

// ChildrenByParent groups child items under their parent id.
func ChildrenByParent(items []ChecklistItem) map[uuid.UUID][]ChecklistItem {
	children := map[uuid.UUID][]ChecklistItem{}
	for _, item := range items {
		if item.ParentID != nil {
			children[*item.ParentID] = append(children[*item.ParentID], item)
		}
	}
	return children
}

// EffectiveCompleted is the parent-aware completion rule: when children
// exist the parent counts as completed only if every child is completed,
// otherwise the item's own status decides.
func EffectiveCompleted(item ChecklistItem, children []ChecklistItem) bool {
	if len(children) == 0 {
		return item.Status == StatusCompleted
	}
	for _, child := range children {
		if child.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// CompletionFraction is a top-level item's progress: the completed weight
// share of its children when children exist, else 0 or 1 from its status.
func CompletionFraction(item ChecklistItem, children []ChecklistItem) float64 {
	if len(children) == 0 {
		if item.Status == StatusCompleted {
			return 1
		}
		return 0
	}
	var total, done float64
	for _, child := range children {
		w := child.EffectiveWeight()
		total += w
		if child.Status == StatusCompleted {
			done += w
		}
	}
	if total == 0 {
		return 0
	}
	return done / total
}

// WeightedProgress computes overall completion in [0, 1] across the given
// items. Only top-level items carry top-level weight; children contribute
// through their parent's fraction.
func WeightedProgress(items []ChecklistItem) float64 {
	children := ChildrenByParent(items)

	var total, done float64
	for _, item := range items {
		if item.ParentID != nil {
			continue
		}
		w := item.EffectiveWeight()
		total += w
		done += w * CompletionFraction(item, children[item.ID])
	}
	if total == 0 {
		return 0
	}
	return done / total
}

// UnmetDependencies returns the dependency ids of item that are not in the
// completed set.
func UnmetDependencies(item ChecklistItem, completed map[uuid.UUID]bool) []uuid.UUID {
	var unmet []uuid.UUID
	for _, dep := range item.Dependencies {
		if !completed[dep] {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}
