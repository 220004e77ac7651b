package properties

import (
	"context"
	"errors"
	"testing"

	"realtydesk_backend/platform/logger"
)

type fakeFetcher struct {
	tree    any
	err     error
	enabled bool
}

func (f *fakeFetcher) FetchListings(ctx context.Context, filters SearchFilters) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tree, nil
}

func (f *fakeFetcher) Enabled() bool { return f.enabled }

func TestSearch_FallsBackOnProviderFailure(t *testing.T) {
	svc := NewService(&fakeFetcher{err: errors.New("timeout"), enabled: true}, nil, nil, logger.New("test"))

	result, err := svc.Search(context.Background(), SearchFilters{
		MinBedrooms: 3, MinBathrooms: 2, MaxPrice: 400000, Location: "75201",
	})
	if err != nil {
		t.Fatalf("provider failure must not propagate: %v", err)
	}
	if !result.UsedFallback {
		t.Fatal("expected fallback dataset")
	}
	if result.Total == 0 {
		t.Fatal("expected fallback results for 75201")
	}
}

func TestSearch_FallbackScenarioWidensPrice(t *testing.T) {
	// The fallback dataset has one 3bd/2ba at $440k in 75201. With a $400k
	// ceiling it only survives the ±10% tier.
	svc := NewService(&fakeFetcher{enabled: false}, nil, nil, logger.New("test"))

	result, err := svc.Search(context.Background(), SearchFilters{
		MinBedrooms: 3, MinBathrooms: 2, MaxPrice: 400000, Location: "75201",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RelaxationTier != TierWidenedPrice {
		t.Fatalf("expected price-widened tier, got %s", result.RelaxationLabel)
	}
	if result.Total != 1 || result.Properties[0].Price != 440000 {
		t.Fatalf("expected the $440k property, got %+v", result.Properties)
	}
}

func TestSearch_UsesProviderCandidates(t *testing.T) {
	tree := map[string]any{
		"props": []any{
			map[string]any{
				"streetAddress": "500 Elm St",
				"zip":           "75201",
				"listPrice":     float64(395000),
				"bedrooms":      float64(3),
				"bathrooms":     float64(2),
			},
		},
	}
	svc := NewService(&fakeFetcher{tree: tree, enabled: true}, nil, nil, logger.New("test"))

	result, err := svc.Search(context.Background(), SearchFilters{
		MinBedrooms: 3, MinBathrooms: 2, MaxPrice: 400000, Location: "75201",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UsedFallback {
		t.Fatal("expected provider data, not fallback")
	}
	if result.RelaxationTier != TierStrict || result.Total != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFiltersFromPreferences(t *testing.T) {
	filters := FiltersFromPreferences(map[string]any{
		"bedrooms":       3.0,
		"bathrooms":      2.0,
		"zip":            "75201",
		"max_price":      400000.0,
		"property_types": []any{"single_family"},
	})

	if filters.MinBedrooms != 3 || filters.MinBathrooms != 2 {
		t.Fatalf("unexpected bed/bath filters: %+v", filters)
	}
	if filters.MaxPrice != 400000 || filters.Location != "75201" {
		t.Fatalf("unexpected price/location filters: %+v", filters)
	}
	if len(filters.PropertyTypes) != 1 || filters.PropertyTypes[0] != "single_family" {
		t.Fatalf("unexpected property types: %v", filters.PropertyTypes)
	}
}
