package properties

import "testing"

func TestRelaxUntilMatch_StopsAtStrict(t *testing.T) {
	candidates := []Property{
		{ZipCode: "75201", Price: 380000, Bedrooms: intPtr(3), Bathrooms: floatPtr(2)},
		{ZipCode: "75201", Price: 900000, Bedrooms: intPtr(5), Bathrooms: floatPtr(4)},
	}
	filters := SearchFilters{MinBedrooms: 3, MinBathrooms: 2, MaxPrice: 400000}

	matched, tier := relaxUntilMatch(candidates, filters)
	if tier != TierStrict {
		t.Fatalf("expected strict tier, got %d", tier)
	}
	if len(matched) != 1 || matched[0].Price != 380000 {
		t.Fatalf("unexpected matches: %v", matched)
	}
}

func TestRelaxUntilMatch_WidensPriceTenPercent(t *testing.T) {
	// One property at $440k against a $400k ceiling: only the ±10% tier
	// lets it through, and the tier must be reported as such.
	candidates := []Property{
		{ZipCode: "75201", Price: 440000, Bedrooms: intPtr(3), Bathrooms: floatPtr(2)},
	}
	filters := SearchFilters{MinBedrooms: 3, MinBathrooms: 2, MaxPrice: 400000, Location: "75201"}

	matched, tier := relaxUntilMatch(candidates, filters)
	if tier != TierWidenedPrice {
		t.Fatalf("expected widened-price tier, got %d (%s)", tier, TierLabel(tier))
	}
	if len(matched) != 1 || matched[0].Price != 440000 {
		t.Fatalf("expected the $440k property, got %v", matched)
	}
	if TierLabel(tier) != "price_widened_10pct" {
		t.Fatalf("unexpected tier label %q", TierLabel(tier))
	}
}

func TestRelaxUntilMatch_UnknownBathroomsBeforeBedrooms(t *testing.T) {
	candidates := []Property{
		{Price: 350000, Bedrooms: intPtr(3), Bathrooms: nil},
		{Price: 350000, Bedrooms: nil, Bathrooms: nil},
	}
	filters := SearchFilters{MinBedrooms: 3, MinBathrooms: 2, MaxPrice: 400000}

	matched, tier := relaxUntilMatch(candidates, filters)
	if tier != TierUnknownBathrooms {
		t.Fatalf("expected unknown-bathrooms tier, got %d", tier)
	}
	if len(matched) != 1 || matched[0].Bedrooms == nil {
		t.Fatalf("expected only the known-bedroom property, got %v", matched)
	}
}

func TestRelaxUntilMatch_UnfilteredIsTerminal(t *testing.T) {
	candidates := []Property{
		{Price: 2000000, Bedrooms: intPtr(1), Bathrooms: floatPtr(1)},
	}
	filters := SearchFilters{MinBedrooms: 4, MinBathrooms: 3, MaxPrice: 300000}

	matched, tier := relaxUntilMatch(candidates, filters)
	if tier != TierUnfiltered {
		t.Fatalf("expected unfiltered tier, got %d", tier)
	}
	if len(matched) != 1 {
		t.Fatalf("expected full candidate set, got %v", matched)
	}
}
