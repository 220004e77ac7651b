// Package domain holds the lead aggregate and its merge rules.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeadType distinguishes the side of the deal the lead is on.
type LeadType string

const (
	LeadTypeBuyer  LeadType = "buyer"
	LeadTypeSeller LeadType = "seller"
)

// ValidLeadType reports whether the value is a known lead type.
func ValidLeadType(value string) bool {
	switch LeadType(value) {
	case LeadTypeBuyer, LeadTypeSeller:
		return true
	}
	return false
}

// Lead is a person the agency is working with. Identity is the email/phone
// pair; duplicates on either channel merge into the existing record.
type Lead struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	LeadType    LeadType       `json:"leadType"`
	Source      string         `json:"source,omitempty"`
	Preferences map[string]any `json:"preferences"`
	AIInsights  *string        `json:"aiInsights,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// MergePreferences folds incoming preferences into existing ones without
// discarding prior facts. Scalar values are set or replaced by non-empty
// incoming values; list values are unioned preserving first-seen order.
// The merge is idempotent: applying the same input twice yields the same
// result. The returned slice names the keys that actually changed.
func MergePreferences(existing, incoming map[string]any) (map[string]any, []string) {
	merged := make(map[string]any, len(existing)+len(incoming))
	for key, value := range existing {
		merged[key] = value
	}

	var changed []string
	for key, value := range incoming {
		if isEmptyValue(value) {
			continue
		}

		current, ok := merged[key]
		if !ok {
			merged[key] = normalizeValue(value)
			changed = append(changed, key)
			continue
		}

		currentList, currentIsList := asList(current)
		incomingList, incomingIsList := asList(value)
		if currentIsList || incomingIsList {
			union := unionLists(currentList, incomingList)
			if !listsEqual(currentList, union) {
				merged[key] = union
				changed = append(changed, key)
			} else {
				merged[key] = union
			}
			continue
		}

		if !valuesEqual(current, value) {
			merged[key] = normalizeValue(value)
			changed = append(changed, key)
		}
	}

	sort.Strings(changed)
	return merged, changed
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func normalizeValue(value any) any {
	if list, ok := asList(value); ok {
		return unionLists(nil, list)
	}
	return value
}

func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func unionLists(current, incoming []any) []any {
	seen := make(map[string]struct{}, len(current)+len(incoming))
	out := make([]any, 0, len(current)+len(incoming))
	for _, item := range append(append([]any{}, current...), incoming...) {
		key := listKey(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func listKey(item any) string {
	if s, ok := item.(string); ok {
		return "s:" + strings.ToLower(strings.TrimSpace(s))
	}
	return "v:" + stringify(item)
}

func listsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if listKey(a[i]) != listKey(b[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	return stringify(a) == stringify(b)
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
