package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"realtydesk_backend/internal/ai/gateway"
	"realtydesk_backend/internal/events"
	"realtydesk_backend/internal/transactions/domain"
	"realtydesk_backend/internal/transactions/templates"
	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
)

const transitionSystemPrompt = `You judge whether a real-estate transaction is ready to advance
to its next stage. You receive the current stage, the target stage, and a
summary of outstanding checklist work. Respond with a single JSON object:
{"valid": true|false, "confidence": 0.0-1.0, "missing_critical": [], "warnings": []}
List genuinely blocking items in missing_critical and advisory items in warnings.`

// TransitionOutcome is returned on a successful stage advance.
type TransitionOutcome struct {
	Transaction domain.Transaction      `json:"transaction"`
	Validation  domain.ValidationResult `json:"validation"`
	SeededItems []domain.ChecklistItem  `json:"seededItems"`
}

// Transition advances a transaction one stage forward. The one-step-forward
// bound holds even when forced; forcing only overrides checklist validation,
// and the full validation result is recorded in stage history.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target domain.Stage, force bool) (*TransitionOutcome, error) {
	txn, err := s.txns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if domain.StageIndex(txn.TransactionType, target) < 0 {
		return nil, apperr.Validation(fmt.Sprintf("stage %q is not part of the %s lifecycle", target, txn.TransactionType))
	}
	if !domain.StageOrderAllowed(txn.TransactionType, txn.CurrentStage, target) {
		return nil, apperr.Unprocessable(fmt.Sprintf(
			"transitions move one stage forward only: %s cannot advance to %s", txn.CurrentStage, target))
	}

	validation := s.ValidateTransition(ctx, txn, target)
	if !validation.Valid && !force {
		return nil, apperr.Unprocessable("stage transition blocked by outstanding checklist work").
			WithDetails(validation)
	}

	oldStage := txn.CurrentStage
	txn.CurrentStage = target
	txn.StageHistory = append(txn.StageHistory, domain.StageHistoryEntry{
		Stage:      target,
		EnteredAt:  s.now(),
		Forced:     force && !validation.Valid,
		Validation: &validation,
	})

	updated, err := s.txns.Update(ctx, txn)
	if err != nil {
		return nil, err
	}

	seeded, err := s.seedStage(ctx, updated, target)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.StageChanged{
		BaseEvent:     events.NewBaseEvent(),
		TransactionID: updated.ID,
		LeadID:        updated.LeadID,
		OldStage:      string(oldStage),
		NewStage:      string(target),
		Forced:        force && !validation.Valid,
	})
	s.publishTasksChanged(ctx, updated.ID, target)

	return &TransitionOutcome{Transaction: updated, Validation: validation, SeededItems: seeded}, nil
}

// ValidateTransition summarizes outstanding work in the current stage and
// asks the model for a readiness judgment. Any model or parse failure falls
// back to a deterministic check; the caller always gets a usable result.
func (s *Service) ValidateTransition(ctx context.Context, txn domain.Transaction, target domain.Stage) domain.ValidationResult {
	orderOK := domain.StageOrderAllowed(txn.TransactionType, txn.CurrentStage, target)
	summary := s.summarizeStage(ctx, txn)

	if s.gw != nil && s.gw.Enabled() {
		if result, ok := s.judgeWithModel(ctx, txn, target, summary); ok {
			return result
		}
	}
	return deterministicValidation(orderOK, summary)
}

// stageSummary is the outstanding-work snapshot for the current stage.
type stageSummary struct {
	incompleteCritical []string // incomplete high/urgent priority titles
	incompleteOther    []string
	blocked            []string
	unmetDependencies  []string
}

func (s *Service) summarizeStage(ctx context.Context, txn domain.Transaction) stageSummary {
	items, err := s.items.ListByTransaction(ctx, txn.ID)
	if err != nil {
		s.log.Warn("checklist load failed during validation", "transaction_id", txn.ID, "error", err)
		return stageSummary{}
	}

	children := domain.ChildrenByParent(items)
	completed := map[uuid.UUID]bool{}
	for _, item := range items {
		completed[item.ID] = domain.EffectiveCompleted(item, children[item.ID])
	}

	var summary stageSummary
	for _, item := range items {
		if item.Stage != txn.CurrentStage {
			continue
		}
		if item.Status == domain.StatusBlocked {
			summary.blocked = append(summary.blocked, item.Title)
		}
		if unmet := domain.UnmetDependencies(item, completed); len(unmet) > 0 {
			summary.unmetDependencies = append(summary.unmetDependencies, item.Title)
		}
		if item.ParentID != nil {
			continue // children are reflected through their parent
		}
		if !domain.EffectiveCompleted(item, children[item.ID]) {
			if item.Priority == domain.PriorityHigh || item.Priority == domain.PriorityUrgent {
				summary.incompleteCritical = append(summary.incompleteCritical, item.Title)
			} else {
				summary.incompleteOther = append(summary.incompleteOther, item.Title)
			}
		}
	}
	return summary
}

func (s *Service) judgeWithModel(ctx context.Context, txn domain.Transaction, target domain.Stage, summary stageSummary) (domain.ValidationResult, bool) {
	prompt := fmt.Sprintf(
		"Transaction type: %s\nCurrent stage: %s\nTarget stage: %s\nIncomplete critical items: %s\nIncomplete other items: %s\nBlocked items: %s\nItems with unmet dependencies: %s",
		txn.TransactionType, txn.CurrentStage, target,
		joinOrNone(summary.incompleteCritical), joinOrNone(summary.incompleteOther),
		joinOrNone(summary.blocked), joinOrNone(summary.unmetDependencies),
	)

	result, err := s.gw.Invoke(ctx, gateway.InvokeRequest{
		System:    transitionSystemPrompt,
		Prompt:    prompt,
		JSONMode:  true,
		MaxTokens: 400,
	})
	if err != nil {
		s.log.Warn("transition judgment call failed, using deterministic fallback", "error", err)
		return domain.ValidationResult{}, false
	}

	judgment, err := decodeJudgment(result.Content)
	if err != nil {
		s.log.Warn("transition judgment not parseable, using deterministic fallback", "error", err)
		return domain.ValidationResult{}, false
	}
	judgment.Source = "model"
	return judgment, true
}

func decodeJudgment(content string) (domain.ValidationResult, error) {
	cleaned := strings.TrimSpace(content)

	var raw struct {
		Valid           bool     `json:"valid"`
		Confidence      float64  `json:"confidence"`
		MissingCritical []string `json:"missing_critical"`
		Warnings        []string `json:"warnings"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return domain.ValidationResult{}, repairErr
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return domain.ValidationResult{}, err
		}
	}
	return domain.ValidationResult{
		Valid:           raw.Valid,
		Confidence:      raw.Confidence,
		MissingCritical: raw.MissingCritical,
		Warnings:        raw.Warnings,
	}, nil
}

// deterministicValidation recomputes validity from stage order plus
// zero-incomplete, zero-blocked, zero-unmet-dependency checks.
func deterministicValidation(orderOK bool, summary stageSummary) domain.ValidationResult {
	result := domain.ValidationResult{
		Confidence: 1.0,
		Source:     "deterministic",
	}

	result.MissingCritical = append(result.MissingCritical, summary.incompleteCritical...)
	for _, title := range summary.blocked {
		result.Warnings = append(result.Warnings, title+" is blocked")
	}
	for _, title := range summary.unmetDependencies {
		result.Warnings = append(result.Warnings, title+" has unmet dependencies")
	}
	for _, title := range summary.incompleteOther {
		result.Warnings = append(result.Warnings, title+" is incomplete")
	}

	result.Valid = orderOK &&
		len(summary.incompleteCritical) == 0 &&
		len(summary.incompleteOther) == 0 &&
		len(summary.blocked) == 0 &&
		len(summary.unmetDependencies) == 0
	return result
}

func joinOrNone(titles []string) string {
	if len(titles) == 0 {
		return "none"
	}
	return strings.Join(titles, "; ")
}

// seedStage creates the stage's template checklist items: parents first,
// then one level of subtasks, with title-declared dependencies resolved to
// ids within the batch.
func (s *Service) seedStage(ctx context.Context, txn domain.Transaction, stage domain.Stage) ([]domain.ChecklistItem, error) {
	blueprints, err := templates.ForStage(txn.TransactionType, stage)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load checklist templates failed", err)
	}
	if len(blueprints) == 0 {
		return nil, nil
	}

	stageBase := domain.StageIndex(txn.TransactionType, stage) * 100
	now := s.now()

	idsByTitle := map[string]uuid.UUID{}
	for _, blueprint := range blueprints {
		idsByTitle[blueprint.Title] = uuid.New()
	}

	var batch []domain.ChecklistItem
	for i, blueprint := range blueprints {
		parentID := idsByTitle[blueprint.Title]
		parent := domain.ChecklistItem{
			ID:            parentID,
			TransactionID: txn.ID,
			Stage:         stage,
			Title:         blueprint.Title,
			Description:   blueprint.Description,
			Status:        domain.StatusNotStarted,
			Priority:      priorityOrDefault(blueprint.Priority),
			Weight:        blueprint.Weight,
			StageOrder:    stageBase + i,
			DueDate:       dueDate(now, blueprint.DueDays),
		}
		for _, depTitle := range blueprint.DependsOn {
			if depID, ok := idsByTitle[depTitle]; ok {
				parent.Dependencies = append(parent.Dependencies, depID)
			}
		}
		batch = append(batch, parent)

		for _, subtask := range blueprint.Subtasks {
			pid := parentID
			batch = append(batch, domain.ChecklistItem{
				ID:            uuid.New(),
				TransactionID: txn.ID,
				Stage:         stage,
				ParentID:      &pid,
				Title:         subtask.Title,
				Description:   subtask.Description,
				Status:        domain.StatusNotStarted,
				Priority:      priorityOrDefault(subtask.Priority),
				Weight:        subtask.Weight,
				StageOrder:    stageBase + i,
				DueDate:       dueDate(now, subtask.DueDays),
			})
		}
	}

	return s.items.CreateBatch(ctx, batch)
}

func priorityOrDefault(p string) domain.ItemPriority {
	switch domain.ItemPriority(p) {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent:
		return domain.ItemPriority(p)
	}
	return domain.PriorityMedium
}

func dueDate(now time.Time, days int) *time.Time {
	if days <= 0 {
		return nil
	}
	due := now.AddDate(0, 0, days)
	return &due
}
