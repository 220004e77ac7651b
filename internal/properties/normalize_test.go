package properties

import (
	"encoding/json"
	"testing"
)

func decodeTree(t *testing.T, raw string) any {
	t.Helper()
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return tree
}

func TestNormalizeListings_PreferredPaths(t *testing.T) {
	tree := decodeTree(t, `{
		"props": [
			{
				"streetAddress": "2408 Maple Ave",
				"city": "Dallas",
				"state": "TX",
				"zip": "75201",
				"listPrice": 440000,
				"bedrooms": 3,
				"bathrooms": 2,
				"squareFeet": 1850,
				"photos": ["https://img.example.com/a.jpg", "https://img.example.com/b.jpg"],
				"mlsNumber": "20451123"
			}
		]
	}`)

	listings := NormalizeListings(tree)
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	p := listings[0]
	if p.Price != 440000 || p.PriceSource != "listPrice" {
		t.Fatalf("unexpected price %v from %q", p.Price, p.PriceSource)
	}
	if p.Bedrooms == nil || *p.Bedrooms != 3 {
		t.Fatalf("unexpected bedrooms: %v", p.Bedrooms)
	}
	if len(p.Images) != 2 {
		t.Fatalf("expected 2 images, got %v", p.Images)
	}
}

func TestNormalizeListings_DeepScanFindsNestedPrice(t *testing.T) {
	tree := decodeTree(t, `{
		"data": {
			"results": [
				{
					"address": {"street": "901 S 1st St", "city": "Austin", "zip": "78704"},
					"pricing": {"details": {"currentListingPrice": "515,000"}},
					"media": {"photos": [{"url": "https://img.example.com/p.jpg"}]}
				}
			]
		}
	}`)

	listings := NormalizeListings(tree)
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	p := listings[0]
	if p.Price != 515000 {
		t.Fatalf("expected deep-scanned price, got %v", p.Price)
	}
	if p.PriceSource == "" {
		t.Fatal("expected provenance path for deep-scanned price")
	}
	if p.Street != "901 S 1st St" || p.ZipCode != "78704" {
		t.Fatalf("expected nested address fields, got %+v", p)
	}
	if len(p.Images) != 1 {
		t.Fatalf("expected image from media.photos, got %v", p.Images)
	}
}

func TestNormalizeListings_SkipsUnusableRecords(t *testing.T) {
	tree := decodeTree(t, `{"listings": [{"foo": "bar"}, {"price": 250000, "zip": "77002"}]}`)

	listings := NormalizeListings(tree)
	if len(listings) != 1 {
		t.Fatalf("expected unusable record skipped, got %d listings", len(listings))
	}
	if listings[0].Price != 250000 {
		t.Fatalf("unexpected listing: %+v", listings[0])
	}
}

func TestNormalizeListings_BareArrayPayload(t *testing.T) {
	tree := decodeTree(t, `[{"price": 300000, "streetAddress": "1 Main St"}]`)

	listings := NormalizeListings(tree)
	if len(listings) != 1 {
		t.Fatalf("expected bare array handled, got %d", len(listings))
	}
}

func TestNormalizeLocation(t *testing.T) {
	cases := []struct {
		in   string
		want Location
	}{
		{"75201", Location{ZipCode: "75201"}},
		{"75201-1234", Location{ZipCode: "75201"}},
		{"Dallas, TX", Location{City: "Dallas", State: "TX"}},
		{"Austin, Texas", Location{City: "Austin", State: "TX"}},
		{"Texas", Location{State: "TX"}},
		{"tx", Location{State: "TX"}},
		{"Dallas", Location{City: "Dallas"}},
		{"", Location{}},
	}
	for _, tc := range cases {
		got := NormalizeLocation(tc.in)
		if got != tc.want {
			t.Fatalf("NormalizeLocation(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}
