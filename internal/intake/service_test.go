package intake

import (
	"context"
	"testing"

	"realtydesk_backend/internal/ai/gateway"
	"realtydesk_backend/platform/logger"
)

type fakeInvoker struct {
	content string
	err     error
	enabled bool
}

func (f *fakeInvoker) Invoke(ctx context.Context, req gateway.InvokeRequest) (*gateway.InvokeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.InvokeResult{Content: f.content}, nil
}

func (f *fakeInvoker) Enabled() bool { return f.enabled }

const sellerText = `We want to sell our 3 bedroom house at 123 Oak St, asking $450k.
Built in 1995, about 2,100 sqft on a 0.25 acre lot, HOA dues are $85.
It is owner occupied but needs work. We want to move asap.`

func TestParse_DisabledGatewayUsesHeuristics(t *testing.T) {
	svc := NewService(&fakeInvoker{enabled: false}, logger.New("test"))

	parsed := svc.Parse(context.Background(), sellerText)
	if !parsed.UsedFallback {
		t.Fatal("expected fallback provenance")
	}
	if parsed.Summary != "could not parse submission" {
		t.Fatalf("expected typed could-not-parse summary, got %q", parsed.Summary)
	}
	if parsed.Intent != "sell" {
		t.Fatalf("expected sell intent from keywords, got %q", parsed.Intent)
	}

	prefs := parsed.Preferences
	if prefs["asking_price"] != 450000.0 {
		t.Fatalf("expected asking price 450000, got %v", prefs["asking_price"])
	}
	if prefs["year_built"] != 1995.0 {
		t.Fatalf("expected year built 1995, got %v", prefs["year_built"])
	}
	if prefs["square_feet"] != 2100.0 {
		t.Fatalf("expected 2100 sqft, got %v", prefs["square_feet"])
	}
	lot, _ := prefs["lot_size_sqft"].(float64)
	if lot < 10889 || lot > 10891 {
		t.Fatalf("expected quarter acre in sqft, got %v", lot)
	}
	if prefs["hoa_fee"] != 85.0 {
		t.Fatalf("expected hoa fee 85, got %v", prefs["hoa_fee"])
	}
	if prefs["occupancy"] != "owner_occupied" {
		t.Fatalf("expected owner_occupied, got %v", prefs["occupancy"])
	}
	if prefs["condition"] != "needs_work" {
		t.Fatalf("expected needs_work, got %v", prefs["condition"])
	}
	if prefs["timeline"] != "asap" {
		t.Fatalf("expected asap timeline, got %v", prefs["timeline"])
	}
	if prefs["property_type"] != "single_family" {
		t.Fatalf("expected single_family, got %v", prefs["property_type"])
	}
}

func TestParse_HeuristicsCorrectImplausibleButKeepPlausible(t *testing.T) {
	// Model returns an implausible price and a plausible property type.
	gw := &fakeInvoker{
		enabled: true,
		content: `{"intent": "sell", "preferences": {"asking_price": 450, "property_type": "condo"}}`,
	}
	svc := NewService(gw, logger.New("test"))

	parsed := svc.Parse(context.Background(), "Selling my condo, asking $450k.")
	if parsed.UsedFallback {
		t.Fatal("model path succeeded, fallback must not be flagged")
	}
	if parsed.Preferences["asking_price"] != 450000.0 {
		t.Fatalf("implausible model price must be corrected, got %v", parsed.Preferences["asking_price"])
	}
	if parsed.Preferences["property_type"] != "condo" {
		t.Fatalf("plausible model value must not be overwritten, got %v", parsed.Preferences["property_type"])
	}
}

func TestParse_PlausibleModelPriceKept(t *testing.T) {
	gw := &fakeInvoker{
		enabled: true,
		content: `{"intent": "sell", "preferences": {"asking_price": 500000}}`,
	}
	svc := NewService(gw, logger.New("test"))

	parsed := svc.Parse(context.Background(), "Selling, asking $450k.")
	if parsed.Preferences["asking_price"] != 500000.0 {
		t.Fatalf("plausible model price must be kept, got %v", parsed.Preferences["asking_price"])
	}
}

func TestDecodeExtraction_RepairsMalformedJSON(t *testing.T) {
	parsed, err := decodeExtraction("```json\n{\"intent\": \"buy\", \"summary\": \"wants a condo\",}\n```")
	if err != nil {
		t.Fatalf("expected repair to succeed: %v", err)
	}
	if parsed.Intent != "buy" || parsed.Summary != "wants a condo" {
		t.Fatalf("unexpected parse: %+v", parsed)
	}
}

func TestParse_ModelErrorYieldsTypedFallback(t *testing.T) {
	gw := &fakeInvoker{enabled: true, err: context.DeadlineExceeded}
	svc := NewService(gw, logger.New("test"))

	parsed := svc.Parse(context.Background(), "hello there")
	if !parsed.UsedFallback || parsed.Intent != "unknown" {
		t.Fatalf("expected typed could-not-parse result, got %+v", parsed)
	}
}
