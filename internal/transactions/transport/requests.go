// Package transport holds the transaction HTTP DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateTransactionRequest opens a transaction.
type CreateTransactionRequest struct {
	LeadID          uuid.UUID  `json:"leadId" binding:"required"`
	TransactionType string     `json:"transactionType" binding:"required,oneof=sale purchase lease"`
	PropertyAddress string     `json:"propertyAddress"`
	ListingPrice    *float64   `json:"listingPrice" binding:"omitempty,gt=0"`
	ClosingDate     *time.Time `json:"closingDate"`
}

// UpdateTransactionRequest patches transaction fields.
type UpdateTransactionRequest struct {
	PropertyAddress *string    `json:"propertyAddress"`
	ListingPrice    *float64   `json:"listingPrice" binding:"omitempty,gt=0"`
	ContractPrice   *float64   `json:"contractPrice" binding:"omitempty,gt=0"`
	ClosingDate     *time.Time `json:"closingDate"`
	Closed          *bool      `json:"closed"`
}

// TransitionRequest asks for a stage advance.
type TransitionRequest struct {
	TargetStage string `json:"targetStage" binding:"required"`
	Force       bool   `json:"force"`
}

// CreateItemRequest adds a checklist item.
type CreateItemRequest struct {
	Stage        string      `json:"stage"`
	ParentID     *uuid.UUID  `json:"parentId"`
	Title        string      `json:"title" binding:"required"`
	Description  string      `json:"description"`
	Priority     string      `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Weight       float64     `json:"weight" binding:"omitempty,gt=0"`
	Dependencies []uuid.UUID `json:"dependencies"`
	DueDate      *time.Time  `json:"dueDate"`
}

// UpdateItemRequest patches a checklist item.
type UpdateItemRequest struct {
	Title        *string      `json:"title"`
	Description  *string      `json:"description"`
	Status       *string      `json:"status" binding:"omitempty,oneof=not_started in_progress completed blocked"`
	Priority     *string      `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Weight       *float64     `json:"weight" binding:"omitempty,gt=0"`
	Dependencies *[]uuid.UUID `json:"dependencies"`
	DueDate      *time.Time   `json:"dueDate"`
}
