package intake

import (
	"context"
	"testing"

	"realtydesk_backend/internal/events"
	leaddomain "realtydesk_backend/internal/leads/domain"
	leadservice "realtydesk_backend/internal/leads/service"
	"realtydesk_backend/internal/properties"
	txdomain "realtydesk_backend/internal/transactions/domain"
	txservice "realtydesk_backend/internal/transactions/service"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLeadResolver struct {
	lead     leaddomain.Lead
	insights string
}

func (f *fakeLeadResolver) Resolve(ctx context.Context, input leadservice.ResolveInput) (leadservice.ResolveResult, error) {
	f.lead.Email = input.Email
	f.lead.LeadType = leaddomain.LeadType(input.LeadType)
	return leadservice.ResolveResult{Lead: f.lead, Created: true}, nil
}

func (f *fakeLeadResolver) GenerateInsights(ctx context.Context, id uuid.UUID) (string, error) {
	return f.insights, nil
}

type fakeMatcher struct {
	calls  int
	result *properties.SearchResult
}

func (f *fakeMatcher) SearchForLead(ctx context.Context, leadID uuid.UUID) (*properties.SearchResult, error) {
	f.calls++
	return f.result, nil
}

type fakeOpener struct {
	calls int
	input txservice.CreateInput
}

func (f *fakeOpener) Create(ctx context.Context, input txservice.CreateInput) (*txservice.CreateResult, error) {
	f.calls++
	f.input = input
	return &txservice.CreateResult{
		Transaction: txdomain.Transaction{
			ID:              uuid.New(),
			LeadID:          input.LeadID,
			TransactionType: input.TransactionType,
			CurrentStage:    txdomain.InitialStage(input.TransactionType),
		},
	}, nil
}

func newTestOrchestrator(gw ModelInvoker, leads LeadResolver, matcher PropertyMatcher, deals TransactionOpener) *Orchestrator {
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	return NewOrchestrator(NewService(gw, log), leads, matcher, deals, bus, log)
}

func TestRun_BuyerPipelineMatchesProperties(t *testing.T) {
	gw := &fakeInvoker{
		enabled: true,
		content: `{"lead_info": {"name": "Dana", "email": "dana@example.com"}, "intent": "buy",
			"preferences": {"min_bedrooms": 3, "zip": "75201"}}`,
	}
	leads := &fakeLeadResolver{lead: leaddomain.Lead{ID: uuid.New()}, insights: "motivated buyer"}
	matcher := &fakeMatcher{result: &properties.SearchResult{Total: 2, RelaxationTier: properties.TierStrict}}
	opener := &fakeOpener{}

	result, err := newTestOrchestrator(gw, leads, matcher, opener).Run(context.Background(), "looking to buy", "web")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Lead == nil || result.Lead.LeadType != leaddomain.LeadTypeBuyer {
		t.Fatalf("expected buyer lead, got %+v", result.Lead)
	}
	if matcher.calls != 1 || result.Matches == nil || result.Matches.Total != 2 {
		t.Fatalf("expected property matches, got calls=%d result=%+v", matcher.calls, result.Matches)
	}
	if opener.calls != 0 {
		t.Fatal("buyer intake must not open a transaction")
	}
	if result.Insights != "motivated buyer" {
		t.Fatalf("expected insights, got %q", result.Insights)
	}
}

func TestRun_SellerPipelineOpensTransaction(t *testing.T) {
	gw := &fakeInvoker{
		enabled: true,
		content: `{"lead_info": {"email": "sam@example.com"}, "intent": "sell",
			"transaction_info": {"transaction_type": "sale", "listing_price": 450000}}`,
	}
	leads := &fakeLeadResolver{lead: leaddomain.Lead{ID: uuid.New()}}
	matcher := &fakeMatcher{}
	opener := &fakeOpener{}

	result, err := newTestOrchestrator(gw, leads, matcher, opener).Run(context.Background(), "selling our house", "web")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Lead == nil || result.Lead.LeadType != leaddomain.LeadTypeSeller {
		t.Fatalf("expected seller lead, got %+v", result.Lead)
	}
	if opener.calls != 1 {
		t.Fatal("expected a transaction opened for the seller")
	}
	if opener.input.ListingPrice == nil || *opener.input.ListingPrice != 450000 {
		t.Fatalf("expected listing price carried through, got %v", opener.input.ListingPrice)
	}
	if matcher.calls != 0 {
		t.Fatal("seller intake must not run property matching")
	}
	if result.Transaction == nil || result.Transaction.CurrentStage != txdomain.StagePreListing {
		t.Fatalf("expected pre_listing transaction, got %+v", result.Transaction)
	}
}

func TestRun_NoContactSkipsResolution(t *testing.T) {
	gw := &fakeInvoker{enabled: true, content: `{"intent": "buy", "summary": "anonymous inquiry"}`}
	matcher := &fakeMatcher{}

	result, err := newTestOrchestrator(gw, &fakeLeadResolver{}, matcher, &fakeOpener{}).
		Run(context.Background(), "just browsing", "web")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Lead != nil {
		t.Fatal("expected no lead without contact details")
	}
	if matcher.calls != 0 {
		t.Fatal("expected no matching without a lead")
	}
}
