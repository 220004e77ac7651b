// Package intake turns free-text messages into structured lead, preference,
// and transaction facts. The primary path asks the model for a structured
// extraction; a deterministic pattern extractor backfills and corrects
// seller facts the model missed or got implausibly wrong.
package intake

import (
	"context"
	"encoding/json"
	"strings"

	"realtydesk_backend/internal/ai/gateway"
	"realtydesk_backend/platform/logger"

	"github.com/kaptinlin/jsonrepair"
)

const extractionSystemPrompt = `You extract structured facts from real-estate inquiries.
Respond with a single JSON object:
{
  "lead_info": {"name": "", "email": "", "phone": ""},
  "intent": "buy" | "sell" | "lease" | "unknown",
  "preferences": {"min_bedrooms": 0, "min_bathrooms": 0, "min_price": 0, "max_price": 0, "locations": [], "property_types": []},
  "transaction_info": {"transaction_type": "", "listing_price": 0, "closing_date": ""},
  "summary": "one sentence"
}
Omit fields you cannot determine. Never invent contact details.`

// LeadInfo is the identity portion of a parsed submission.
type LeadInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// TransactionInfo is the deal portion of a parsed submission.
type TransactionInfo struct {
	TransactionType string  `json:"transaction_type,omitempty"`
	ListingPrice    float64 `json:"listing_price,omitempty"`
	ClosingDate     string  `json:"closing_date,omitempty"`
}

// ParsedIntake is the structured result of resolving a free-text message.
type ParsedIntake struct {
	LeadInfo        LeadInfo        `json:"lead_info"`
	Intent          string          `json:"intent"`
	Preferences     map[string]any  `json:"preferences"`
	TransactionInfo TransactionInfo `json:"transaction_info"`
	Summary         string          `json:"summary"`
	// UsedFallback is true when the model path failed and only the
	// deterministic extractor contributed facts.
	UsedFallback bool `json:"used_fallback"`
}

// ModelInvoker is the slice of the gateway intake needs.
type ModelInvoker interface {
	Invoke(ctx context.Context, req gateway.InvokeRequest) (*gateway.InvokeResult, error)
	Enabled() bool
}

// Service resolves free text into structured intake facts.
type Service struct {
	gw  ModelInvoker
	log *logger.Logger
}

// NewService creates the intake resolver.
func NewService(gw ModelInvoker, log *logger.Logger) *Service {
	return &Service{gw: gw, log: log}
}

// Parse resolves a free-text message. The model path runs first when
// available; deterministic extraction then backfills seller facts and
// corrects implausible values. A model failure yields a typed
// could-not-parse result, never a silent guess.
func (s *Service) Parse(ctx context.Context, freeText string) ParsedIntake {
	parsed, ok := s.parseWithModel(ctx, freeText)
	if !ok {
		parsed = couldNotParse()
	}
	if parsed.Preferences == nil {
		parsed.Preferences = map[string]any{}
	}

	applySellerHeuristics(&parsed, freeText)
	return parsed
}

func (s *Service) parseWithModel(ctx context.Context, freeText string) (ParsedIntake, bool) {
	if s.gw == nil || !s.gw.Enabled() {
		return ParsedIntake{}, false
	}

	result, err := s.gw.Invoke(ctx, gateway.InvokeRequest{
		System:    extractionSystemPrompt,
		Prompt:    freeText,
		JSONMode:  true,
		MaxTokens: 800,
	})
	if err != nil {
		s.log.Warn("intake model extraction failed", "error", err)
		return ParsedIntake{}, false
	}

	parsed, err := decodeExtraction(result.Content)
	if err != nil {
		s.log.Warn("intake extraction not parseable", "error", err)
		return ParsedIntake{}, false
	}
	return parsed, true
}

// decodeExtraction unmarshals model output, repairing malformed JSON first
// (models frequently emit trailing commas or fence markers).
func decodeExtraction(content string) (ParsedIntake, error) {
	cleaned := stripCodeFences(content)

	var parsed ParsedIntake
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return parsed, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return ParsedIntake{}, err
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return ParsedIntake{}, err
	}
	return parsed, nil
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

func couldNotParse() ParsedIntake {
	return ParsedIntake{
		Intent:       "unknown",
		Preferences:  map[string]any{},
		Summary:      "could not parse submission",
		UsedFallback: true,
	}
}
