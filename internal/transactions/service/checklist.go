package service

import (
	"context"
	"fmt"
	"time"

	"realtydesk_backend/internal/transactions/domain"
	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
)

// ChecklistView is a transaction's checklist plus its weighted progress.
type ChecklistView struct {
	Items    []domain.ChecklistItem `json:"items"`
	Progress float64                `json:"progress"`
}

// Checklist returns all items for a transaction with overall progress.
func (s *Service) Checklist(ctx context.Context, transactionID uuid.UUID) (*ChecklistView, error) {
	if _, err := s.txns.GetByID(ctx, transactionID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return &ChecklistView{Items: items, Progress: domain.WeightedProgress(items)}, nil
}

// ItemInput are the operator-settable fields of a checklist item.
type ItemInput struct {
	Stage        domain.Stage
	ParentID     *uuid.UUID
	Title        string
	Description  string
	Priority     domain.ItemPriority
	Weight       float64
	Dependencies []uuid.UUID
	DueDate      *time.Time
}

// AddItem creates an operator-authored checklist item. Nesting is limited to
// one level: the parent must be a top-level item on the same transaction.
func (s *Service) AddItem(ctx context.Context, transactionID uuid.UUID, input ItemInput) (domain.ChecklistItem, error) {
	txn, err := s.txns.GetByID(ctx, transactionID)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	if input.Title == "" {
		return domain.ChecklistItem{}, apperr.Validation("checklist item title is required")
	}

	stage := input.Stage
	if stage == "" {
		stage = txn.CurrentStage
	}
	if domain.StageIndex(txn.TransactionType, stage) < 0 {
		return domain.ChecklistItem{}, apperr.Validation(fmt.Sprintf("stage %q is not part of the %s lifecycle", stage, txn.TransactionType))
	}

	if input.ParentID != nil {
		parent, err := s.items.GetByID(ctx, *input.ParentID)
		if err != nil {
			return domain.ChecklistItem{}, err
		}
		if parent.TransactionID != transactionID {
			return domain.ChecklistItem{}, apperr.Validation("parent item belongs to a different transaction")
		}
		if parent.ParentID != nil {
			return domain.ChecklistItem{}, apperr.Validation("checklist items nest at most one level")
		}
	}

	created, err := s.items.Create(ctx, domain.ChecklistItem{
		TransactionID: transactionID,
		Stage:         stage,
		ParentID:      input.ParentID,
		Title:         input.Title,
		Description:   input.Description,
		Status:        domain.StatusNotStarted,
		Priority:      priorityOrDefault(string(input.Priority)),
		Weight:        input.Weight,
		Dependencies:  input.Dependencies,
		StageOrder:    domain.StageIndex(txn.TransactionType, stage)*100 + 99,
		DueDate:       input.DueDate,
	})
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	s.publishTasksChanged(ctx, transactionID, stage)
	return created, nil
}

// ItemUpdate holds optional checklist item changes; nil means unchanged.
type ItemUpdate struct {
	Title        *string
	Description  *string
	Status       *domain.ItemStatus
	Priority     *domain.ItemPriority
	Weight       *float64
	Dependencies *[]uuid.UUID
	DueDate      *time.Time
}

// UpdateItem applies field changes. Completing an item stamps CompletedAt;
// reopening clears it.
func (s *Service) UpdateItem(ctx context.Context, itemID uuid.UUID, input ItemUpdate) (domain.ChecklistItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	if input.Title != nil {
		item.Title = *input.Title
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Status != nil {
		if !domain.ValidItemStatus(*input.Status) {
			return domain.ChecklistItem{}, apperr.Validation(fmt.Sprintf("unknown checklist status %q", *input.Status))
		}
		if *input.Status == domain.StatusCompleted && item.Status != domain.StatusCompleted {
			completedAt := s.now()
			item.CompletedAt = &completedAt
		}
		if *input.Status != domain.StatusCompleted {
			item.CompletedAt = nil
		}
		item.Status = *input.Status
	}
	if input.Priority != nil {
		item.Priority = priorityOrDefault(string(*input.Priority))
	}
	if input.Weight != nil {
		item.Weight = *input.Weight
	}
	if input.Dependencies != nil {
		item.Dependencies = *input.Dependencies
	}
	if input.DueDate != nil {
		item.DueDate = input.DueDate
	}

	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	s.publishTasksChanged(ctx, updated.TransactionID, updated.Stage)
	return updated, nil
}

// DeleteItem removes an item (and its children, for a parent).
func (s *Service) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		return err
	}
	s.publishTasksChanged(ctx, item.TransactionID, item.Stage)
	return nil
}
