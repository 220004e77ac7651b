// Package service implements lead resolution: find-or-create with contact
// dedup, additive preference merging, and model-generated insights.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"realtydesk_backend/internal/ai/gateway"
	"realtydesk_backend/internal/events"
	"realtydesk_backend/internal/leads/domain"
	"realtydesk_backend/internal/leads/repository"
	"realtydesk_backend/platform/apperr"
	"realtydesk_backend/platform/logger"
	"realtydesk_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	opResolve          = "leads.service.resolve"
	opMergePreferences = "leads.service.merge_preferences"
	opInsights         = "leads.service.generate_insights"

	insightsSystemPrompt = "You are a real-estate CRM assistant. Given a lead profile, " +
		"write a short narrative (3-5 sentences) covering what the lead wants, " +
		"how engaged they appear, and the recommended next step. Plain text only."
)

// ModelInvoker is the slice of the gateway the lead service needs.
type ModelInvoker interface {
	Invoke(ctx context.Context, req gateway.InvokeRequest) (*gateway.InvokeResult, error)
	Enabled() bool
}

// InsightNarrator generates the lead narrative. The production
// implementation is the ADK agent in internal/leads/agent.
type InsightNarrator interface {
	Narrate(ctx context.Context, lead domain.Lead) (string, error)
}

// Service coordinates lead persistence, dedup, and enrichment.
type Service struct {
	repo     repository.Repository
	bus      events.Bus
	gw       ModelInvoker
	narrator InsightNarrator
	log      *logger.Logger
}

// New creates the lead service.
func New(repo repository.Repository, bus events.Bus, gw ModelInvoker, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, gw: gw, log: log}
}

// SetInsightNarrator injects the agent-backed narrator. Without one the
// service falls back to a direct gateway call.
func (s *Service) SetInsightNarrator(narrator InsightNarrator) { s.narrator = narrator }

// ResolveInput is an inbound lead submission, from intake or an operator.
type ResolveInput struct {
	Name        string
	Email       string
	Phone       string
	LeadType    string
	Source      string
	Preferences map[string]any
}

// ResolveResult reports how a submission was absorbed.
type ResolveResult struct {
	Lead    domain.Lead `json:"lead"`
	Created bool        `json:"created"`
	// MatchedBy is "email" or "phone" when an existing lead absorbed the
	// submission, empty when a new lead was created.
	MatchedBy string `json:"matchedBy,omitempty"`
}

// Resolve finds an existing lead by email or phone and merges the submission
// into it, or creates a new lead. Prior facts are never discarded: empty
// identity fields are filled in, preferences merge additively.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (ResolveResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phoneNumber := phone.NormalizeE164(in.Phone)
	name := strings.TrimSpace(in.Name)

	if email == "" && phoneNumber == "" {
		return ResolveResult{}, apperr.Validation("email or phone is required").WithOp(opResolve)
	}

	leadType := domain.LeadTypeBuyer
	if domain.ValidLeadType(in.LeadType) {
		leadType = domain.LeadType(in.LeadType)
	}

	existing, err := s.repo.FindByContact(ctx, email, phoneNumber)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return ResolveResult{}, err
		}
		return s.createLead(ctx, name, email, phoneNumber, leadType, in)
	}

	matchedBy := "phone"
	if email != "" && existing.Email == email {
		matchedBy = "email"
	}
	return s.mergeIntoExisting(ctx, existing, name, email, phoneNumber, in, matchedBy)
}

func (s *Service) createLead(ctx context.Context, name, email, phoneNumber string, leadType domain.LeadType, in ResolveInput) (ResolveResult, error) {
	lead, err := s.repo.Create(ctx, domain.Lead{
		Name:        name,
		Email:       email,
		Phone:       phoneNumber,
		LeadType:    leadType,
		Source:      strings.TrimSpace(in.Source),
		Preferences: normalizePreferences(in.Preferences),
	})
	if err != nil {
		return ResolveResult{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Source:    lead.Source,
	})
	s.log.Info("lead created", "leadId", lead.ID, "leadType", lead.LeadType)

	return ResolveResult{Lead: lead, Created: true}, nil
}

func (s *Service) mergeIntoExisting(ctx context.Context, existing domain.Lead, name, email, phoneNumber string, in ResolveInput, matchedBy string) (ResolveResult, error) {
	var updatedFields []string

	if existing.Name == "" && name != "" {
		existing.Name = name
		updatedFields = append(updatedFields, "name")
	}
	if existing.Email == "" && email != "" {
		existing.Email = email
		updatedFields = append(updatedFields, "email")
	}
	if existing.Phone == "" && phoneNumber != "" {
		existing.Phone = phoneNumber
		updatedFields = append(updatedFields, "phone")
	}

	if len(updatedFields) > 0 {
		updated, err := s.repo.Update(ctx, existing)
		if err != nil {
			return ResolveResult{}, err
		}
		existing = updated
	}

	merged, changedKeys := domain.MergePreferences(existing.Preferences, in.Preferences)
	if len(changedKeys) > 0 {
		if err := s.repo.UpdatePreferences(ctx, existing.ID, merged); err != nil {
			return ResolveResult{}, err
		}
		existing.Preferences = merged
		for _, key := range changedKeys {
			updatedFields = append(updatedFields, "preferences."+key)
		}
	}

	s.bus.Publish(ctx, events.LeadMerged{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        existing.ID,
		MatchedBy:     matchedBy,
		UpdatedFields: updatedFields,
	})
	s.log.Info("lead merged", "leadId", existing.ID, "matchedBy", matchedBy, "updatedFields", len(updatedFields))

	return ResolveResult{Lead: existing, MatchedBy: matchedBy}, nil
}

// MergePreferences applies an additive preference merge to a lead by id.
func (s *Service) MergePreferences(ctx context.Context, id uuid.UUID, incoming map[string]any) (domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}

	merged, changedKeys := domain.MergePreferences(lead.Preferences, incoming)
	if len(changedKeys) == 0 {
		return lead, nil
	}
	if err := s.repo.UpdatePreferences(ctx, id, merged); err != nil {
		return domain.Lead{}, err
	}
	lead.Preferences = merged

	s.bus.Publish(ctx, events.LeadMerged{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        id,
		MatchedBy:     "id",
		UpdatedFields: changedKeys,
	})
	return lead, nil
}

// GenerateInsights asks the model for a lead narrative and stores it.
func (s *Service) GenerateInsights(ctx context.Context, id uuid.UUID) (string, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if s.gw == nil || !s.gw.Enabled() {
		return "", apperr.Unavailable("insight generation requires the model gateway").WithOp(opInsights)
	}

	narrative, err := s.narrate(ctx, lead)
	if err != nil {
		return "", err
	}
	if narrative == "" {
		return "", apperr.Unprocessable("model returned empty insights").WithOp(opInsights)
	}
	if err := s.repo.UpdateInsights(ctx, id, narrative); err != nil {
		return "", err
	}
	return narrative, nil
}

func (s *Service) narrate(ctx context.Context, lead domain.Lead) (string, error) {
	if s.narrator != nil {
		return s.narrator.Narrate(ctx, lead)
	}

	profile, err := json.Marshal(map[string]any{
		"name":        lead.Name,
		"leadType":    lead.LeadType,
		"source":      lead.Source,
		"preferences": lead.Preferences,
	})
	if err != nil {
		return "", apperr.Internal(fmt.Sprintf("encode lead profile: %v", err)).WithOp(opInsights)
	}

	result, err := s.gw.Invoke(ctx, gateway.InvokeRequest{
		System:    insightsSystemPrompt,
		Prompt:    string(profile),
		MaxTokens: 400,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Content), nil
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of leads plus the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Lead, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// Delete removes a lead. Open transactions for the lead are removed with it
// via the store's cascade.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("lead deleted", "lead_id", id)
	return nil
}

func normalizePreferences(preferences map[string]any) map[string]any {
	merged, _ := domain.MergePreferences(nil, preferences)
	return merged
}
