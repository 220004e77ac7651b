package domain

import (
	"reflect"
	"testing"
)

func TestMergePreferences_FillsNewKeys(t *testing.T) {
	existing := map[string]any{"min_bedrooms": 3.0}
	incoming := map[string]any{"max_price": 500000.0, "locations": []any{"Austin, TX"}}

	merged, changed := MergePreferences(existing, incoming)

	if merged["min_bedrooms"] != 3.0 {
		t.Fatalf("expected prior fact retained, got %v", merged["min_bedrooms"])
	}
	if merged["max_price"] != 500000.0 {
		t.Fatalf("expected new key set, got %v", merged["max_price"])
	}
	if len(changed) != 2 {
		t.Fatalf("expected 2 changed keys, got %v", changed)
	}
}

func TestMergePreferences_Idempotent(t *testing.T) {
	incoming := map[string]any{
		"max_price": 440000.0,
		"locations": []any{"78704", "Round Rock, TX"},
		"must_have": []any{"garage"},
	}

	once, _ := MergePreferences(nil, incoming)
	twice, changed := MergePreferences(once, incoming)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge is not idempotent: %v vs %v", once, twice)
	}
	if len(changed) != 0 {
		t.Fatalf("expected no changed keys on repeat merge, got %v", changed)
	}
}

func TestMergePreferences_UnionsLists(t *testing.T) {
	existing := map[string]any{"locations": []any{"Austin, TX"}}
	incoming := map[string]any{"locations": []any{"austin, tx", "Cedar Park, TX"}}

	merged, changed := MergePreferences(existing, incoming)

	locations, ok := merged["locations"].([]any)
	if !ok {
		t.Fatalf("expected list value, got %T", merged["locations"])
	}
	if len(locations) != 2 {
		t.Fatalf("expected case-insensitive union of 2 entries, got %v", locations)
	}
	if locations[0] != "Austin, TX" || locations[1] != "Cedar Park, TX" {
		t.Fatalf("expected first-seen order preserved, got %v", locations)
	}
	if len(changed) != 1 || changed[0] != "locations" {
		t.Fatalf("expected locations flagged as changed, got %v", changed)
	}
}

func TestMergePreferences_SkipsEmptyValues(t *testing.T) {
	existing := map[string]any{"condition": "renovated"}
	incoming := map[string]any{"condition": "  ", "hoa_fee": nil, "notes": []any{}}

	merged, changed := MergePreferences(existing, incoming)

	if merged["condition"] != "renovated" {
		t.Fatalf("expected empty incoming value to be ignored, got %v", merged["condition"])
	}
	if len(changed) != 0 {
		t.Fatalf("expected no changes, got %v", changed)
	}
	if _, ok := merged["hoa_fee"]; ok {
		t.Fatal("expected nil value to be skipped")
	}
}

func TestMergePreferences_ScalarOverwrite(t *testing.T) {
	existing := map[string]any{"timeline": "6 months"}
	incoming := map[string]any{"timeline": "asap"}

	merged, changed := MergePreferences(existing, incoming)

	if merged["timeline"] != "asap" {
		t.Fatalf("expected newer scalar to replace, got %v", merged["timeline"])
	}
	if len(changed) != 1 {
		t.Fatalf("expected 1 changed key, got %v", changed)
	}
}
