// Package transport defines the HTTP request/response shapes for leads.
package transport

// ResolveLeadRequest is an inbound lead submission.
type ResolveLeadRequest struct {
	Name        string         `json:"name"`
	Email       string         `json:"email" binding:"omitempty,email"`
	Phone       string         `json:"phone"`
	LeadType    string         `json:"leadType" binding:"omitempty,oneof=buyer seller"`
	Source      string         `json:"source"`
	Preferences map[string]any `json:"preferences"`
}

// MergePreferencesRequest carries new preference facts for an existing lead.
type MergePreferencesRequest struct {
	Preferences map[string]any `json:"preferences" binding:"required"`
}
