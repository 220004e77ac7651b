// Package properties queries the external inventory provider, normalizes its
// arbitrarily shaped responses into a canonical record, and matches listings
// against lead preferences with a progressive relaxation ladder.
package properties

// Property is the canonical listing shape produced per query. It is never
// persisted; the provider remains the source of truth.
type Property struct {
	Street      string   `json:"street,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	ZipCode     string   `json:"zipCode,omitempty"`
	Price       float64  `json:"price"`
	PriceSource string   `json:"priceSource,omitempty"`
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *float64 `json:"bathrooms,omitempty"`
	SquareFeet  float64  `json:"squareFeet,omitempty"`
	Images      []string `json:"images,omitempty"`
	MLSNumber   string   `json:"mlsNumber,omitempty"`
	ListingID   string   `json:"listingId,omitempty"`
}

// SearchFilters are the normalized constraints a search runs under.
type SearchFilters struct {
	MinBedrooms   int
	MinBathrooms  float64
	MinPrice      float64
	MaxPrice      float64
	Location      string
	PropertyTypes []string
}

// Relaxation ladder tiers, applied strictly in order. The search stops at
// the first tier that yields at least one result.
const (
	TierStrict = iota
	TierUnknownBathrooms
	TierUnknownBedrooms
	TierWidenedPrice
	TierUnfiltered
)

var tierLabels = map[int]string{
	TierStrict:           "strict",
	TierUnknownBathrooms: "unknown_bathrooms_allowed",
	TierUnknownBedrooms:  "unknown_bedrooms_allowed",
	TierWidenedPrice:     "price_widened_10pct",
	TierUnfiltered:       "unfiltered",
}

// TierLabel names a relaxation tier for downstream explanation text.
func TierLabel(tier int) string {
	if label, ok := tierLabels[tier]; ok {
		return label
	}
	return "unknown"
}

// SearchResult carries matches plus how far the criteria had to be relaxed.
type SearchResult struct {
	Properties      []Property `json:"properties"`
	Total           int        `json:"total"`
	HasMore         bool       `json:"hasMore"`
	RelaxationTier  int        `json:"relaxationTier"`
	RelaxationLabel string     `json:"relaxationLabel"`
	UsedFallback    bool       `json:"usedFallback"`
}
