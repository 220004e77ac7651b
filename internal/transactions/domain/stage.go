// Package domain holds the transaction lifecycle model: typed stage sets,
// the append-only stage history, and checklist completion rules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType distinguishes the lifecycle a deal follows.
type TransactionType string

const (
	TypeSale     TransactionType = "sale"
	TypePurchase TransactionType = "purchase"
	TypeLease    TransactionType = "lease"
)

// ValidTransactionType reports whether t is a known transaction type.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TypeSale, TypePurchase, TypeLease:
		return true
	}
	return false
}

// Stage is a named phase in a transaction's fixed lifecycle.
type Stage string

const (
	StagePreListing    Stage = "pre_listing"
	StageListing       Stage = "listing"
	StagePreApproval   Stage = "pre_approval"
	StageHomeSearch    Stage = "home_search"
	StageOffer         Stage = "offer"
	StageUnderContract Stage = "under_contract"
	StageEscrowClosing Stage = "escrow_closing"
)

var saleStages = []Stage{StagePreListing, StageListing, StageUnderContract, StageEscrowClosing}

var purchaseStages = []Stage{StagePreApproval, StageHomeSearch, StageOffer, StageUnderContract, StageEscrowClosing}

// StagesFor returns the ordered stage set for a transaction type. Leases
// follow the sale lifecycle.
func StagesFor(t TransactionType) []Stage {
	if t == TypePurchase {
		return purchaseStages
	}
	return saleStages
}

// InitialStage is the first stage of the type's lifecycle.
func InitialStage(t TransactionType) Stage {
	return StagesFor(t)[0]
}

// FinalStage is the last stage of the type's lifecycle.
func FinalStage(t TransactionType) Stage {
	stages := StagesFor(t)
	return stages[len(stages)-1]
}

// StageIndex returns the position of stage in the type's lifecycle, or -1
// when the stage is not a member.
func StageIndex(t TransactionType, stage Stage) int {
	for i, s := range StagesFor(t) {
		if s == stage {
			return i
		}
	}
	return -1
}

// StageOrderAllowed reports whether moving from current to target respects
// the one-step-forward rule. This bound holds even for forced transitions.
func StageOrderAllowed(t TransactionType, current, target Stage) bool {
	currentIdx := StageIndex(t, current)
	targetIdx := StageIndex(t, target)
	if currentIdx < 0 || targetIdx < 0 {
		return false
	}
	return targetIdx == currentIdx+1
}

// ValidationResult is the structured outcome of a transition check. It is
// returned to callers as data so they can offer a forced override, and it is
// recorded in stage history for auditability.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	Confidence      float64  `json:"confidence"`
	MissingCritical []string `json:"missingCritical,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	// Source is "model" when the judgment came from the gateway,
	// "deterministic" when the fallback computed it.
	Source string `json:"source"`
}

// StageHistoryEntry is one record in the append-only stage log.
type StageHistoryEntry struct {
	Stage      Stage             `json:"stage"`
	EnteredAt  time.Time         `json:"enteredAt"`
	Forced     bool              `json:"forced,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty"`
}

// Transaction models one deal moving through its stage lifecycle.
type Transaction struct {
	ID              uuid.UUID           `json:"id"`
	LeadID          uuid.UUID           `json:"leadId"`
	TransactionType TransactionType     `json:"transactionType"`
	CurrentStage    Stage               `json:"currentStage"`
	StageHistory    []StageHistoryEntry `json:"stageHistory"`
	PropertyAddress string              `json:"propertyAddress,omitempty"`
	ListingPrice    *float64            `json:"listingPrice,omitempty"`
	ContractPrice   *float64            `json:"contractPrice,omitempty"`
	ClosingDate     *time.Time          `json:"closingDate,omitempty"`
	Closed          bool                `json:"closed"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// Active reports whether the transaction should be scanned for alerts.
func (t Transaction) Active() bool {
	return !t.Closed
}
