package properties

import (
	"context"

	"realtydesk_backend/internal/events"
	leaddomain "realtydesk_backend/internal/leads/domain"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
)

// ListingFetcher is the provider surface the service depends on.
type ListingFetcher interface {
	FetchListings(ctx context.Context, filters SearchFilters) (any, error)
	Enabled() bool
}

// LeadSource supplies lead preferences for preference-driven searches.
type LeadSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (leaddomain.Lead, error)
}

// Service runs property searches with provider fallback and the relaxation
// ladder.
type Service struct {
	client ListingFetcher
	leads  LeadSource
	bus    events.Bus
	log    *logger.Logger
}

// NewService creates the property matching service.
func NewService(client ListingFetcher, leads LeadSource, bus events.Bus, log *logger.Logger) *Service {
	return &Service{client: client, leads: leads, bus: bus, log: log}
}

// Search fetches candidates and applies the relaxation ladder. Provider
// faults are swallowed and replaced with the local fallback dataset; the
// caller always gets a usable result.
func (s *Service) Search(ctx context.Context, filters SearchFilters) (*SearchResult, error) {
	candidates, usedFallback := s.fetchCandidates(ctx, filters)
	matched, tier := relaxUntilMatch(candidates, filters)

	return &SearchResult{
		Properties:      matched,
		Total:           len(matched),
		HasMore:         false,
		RelaxationTier:  tier,
		RelaxationLabel: TierLabel(tier),
		UsedFallback:    usedFallback,
	}, nil
}

// SearchForLead runs a search driven by a lead's stored preferences and
// publishes the outcome.
func (s *Service) SearchForLead(ctx context.Context, leadID uuid.UUID) (*SearchResult, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	filters := FiltersFromPreferences(lead.Preferences)
	result, err := s.Search(ctx, filters)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.MatchSearchCompleted{
			BaseEvent:       events.NewBaseEvent(),
			LeadID:          leadID,
			ResultCount:     result.Total,
			RelaxationLevel: result.RelaxationTier,
			UsedFallback:    result.UsedFallback,
		})
	}
	return result, nil
}

func (s *Service) fetchCandidates(ctx context.Context, filters SearchFilters) ([]Property, bool) {
	if s.client == nil || !s.client.Enabled() {
		return FallbackListings(filters.Location), true
	}

	tree, err := s.client.FetchListings(ctx, filters)
	if err != nil {
		s.log.Warn("inventory provider unavailable, serving fallback dataset", "error", err)
		return FallbackListings(filters.Location), true
	}

	candidates := NormalizeListings(tree)
	if len(candidates) == 0 {
		return FallbackListings(filters.Location), true
	}
	return candidates, false
}

// FiltersFromPreferences maps a lead's open preference map onto search
// filters. Unknown keys are ignored.
func FiltersFromPreferences(preferences map[string]any) SearchFilters {
	var filters SearchFilters

	if n, ok := preferenceNumber(preferences, "min_bedrooms", "bedrooms"); ok {
		filters.MinBedrooms = int(n)
	}
	if n, ok := preferenceNumber(preferences, "min_bathrooms", "bathrooms"); ok {
		filters.MinBathrooms = n
	}
	if n, ok := preferenceNumber(preferences, "min_price"); ok {
		filters.MinPrice = n
	}
	if n, ok := preferenceNumber(preferences, "max_price", "budget"); ok {
		filters.MaxPrice = n
	}

	if location, ok := preferences["zip"].(string); ok && location != "" {
		filters.Location = location
	} else if location, ok := preferences["location"].(string); ok && location != "" {
		filters.Location = location
	} else if locations, ok := preferences["locations"].([]any); ok && len(locations) > 0 {
		if first, ok := locations[0].(string); ok {
			filters.Location = first
		}
	}

	if types, ok := preferences["property_types"].([]any); ok {
		for _, t := range types {
			if s, ok := t.(string); ok && s != "" {
				filters.PropertyTypes = append(filters.PropertyTypes, s)
			}
		}
	}
	return filters
}

func preferenceNumber(preferences map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if value, ok := preferences[key]; ok {
			if n, ok := toNumber(value); ok && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}
