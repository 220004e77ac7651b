package service

import (
	"context"
	"testing"

	"realtydesk_backend/internal/ai/gateway"
	"realtydesk_backend/internal/leads/repository"
	"realtydesk_backend/platform/apperr"
	"realtydesk_backend/platform/events"
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

func newTestService(gw ModelInvoker) (*Service, *repository.MemoryRepository) {
	repo := repository.NewMemory()
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	return New(repo, bus, gw, log), repo
}

func TestResolve_CreatesNewLead(t *testing.T) {
	svc, _ := newTestService(nil)

	result, err := svc.Resolve(context.Background(), ResolveInput{
		Name:     "Dana Fuentes",
		Email:    "Dana@Example.com",
		LeadType: "buyer",
		Preferences: map[string]any{
			"max_price": 450000.0,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Created {
		t.Fatal("expected new lead to be created")
	}
	if result.Lead.Email != "dana@example.com" {
		t.Fatalf("expected normalized email, got %q", result.Lead.Email)
	}
	if result.Lead.Preferences["max_price"] != 450000.0 {
		t.Fatalf("expected preferences stored, got %v", result.Lead.Preferences)
	}
}

func TestResolve_MergesByEmail(t *testing.T) {
	svc, _ := newTestService(nil)

	first, err := svc.Resolve(context.Background(), ResolveInput{
		Name:  "Dana",
		Email: "dana@example.com",
		Preferences: map[string]any{
			"min_bedrooms": 3.0,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Resolve(context.Background(), ResolveInput{
		Email: "dana@example.com",
		Phone: "+15125550100",
		Preferences: map[string]any{
			"max_price": 440000.0,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Created {
		t.Fatal("expected merge into existing lead, not a new one")
	}
	if second.MatchedBy != "email" {
		t.Fatalf("expected email match, got %q", second.MatchedBy)
	}
	if second.Lead.ID != first.Lead.ID {
		t.Fatal("expected same lead id after merge")
	}
	if second.Lead.Phone == "" {
		t.Fatal("expected empty phone to be filled in")
	}
	if second.Lead.Preferences["min_bedrooms"] != 3.0 {
		t.Fatal("expected prior preference retained")
	}
	if second.Lead.Preferences["max_price"] != 440000.0 {
		t.Fatal("expected new preference merged")
	}
}

func TestResolve_RequiresContact(t *testing.T) {
	svc, _ := newTestService(nil)

	_, err := svc.Resolve(context.Background(), ResolveInput{Name: "No Contact"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMergePreferences_IdempotentAcrossCalls(t *testing.T) {
	svc, _ := newTestService(nil)

	created, err := svc.Resolve(context.Background(), ResolveInput{
		Email:       "x@example.com",
		Preferences: map[string]any{"locations": []any{"78704"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	incoming := map[string]any{"locations": []any{"78704", "78745"}}
	once, err := svc.MergePreferences(context.Background(), created.Lead.ID, incoming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := svc.MergePreferences(context.Background(), created.Lead.ID, incoming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	onceLocations := once.Preferences["locations"].([]any)
	twiceLocations := twice.Preferences["locations"].([]any)
	if len(onceLocations) != 2 || len(twiceLocations) != 2 {
		t.Fatalf("expected stable union, got %v then %v", onceLocations, twiceLocations)
	}
}

func TestGenerateInsights_StoresNarrative(t *testing.T) {
	gw := &fakeInvoker{content: "Motivated buyer, follow up this week.", enabled: true}
	svc, repo := newTestService(gw)

	created, err := svc.Resolve(context.Background(), ResolveInput{Email: "buyer@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	narrative, err := svc.GenerateInsights(context.Background(), created.Lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if narrative != "Motivated buyer, follow up this week." {
		t.Fatalf("unexpected narrative: %q", narrative)
	}

	stored, err := repo.GetByID(context.Background(), created.Lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.AIInsights == nil || *stored.AIInsights != narrative {
		t.Fatal("expected narrative persisted on lead")
	}
}

func TestGenerateInsights_DisabledGateway(t *testing.T) {
	svc, _ := newTestService(&fakeInvoker{enabled: false})

	created, err := svc.Resolve(context.Background(), ResolveInput{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.GenerateInsights(context.Background(), created.Lead.ID)
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
