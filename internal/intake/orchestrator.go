package intake

import (
	"context"
	"time"

	"realtydesk_backend/internal/events"
	leaddomain "realtydesk_backend/internal/leads/domain"
	leadservice "realtydesk_backend/internal/leads/service"
	"realtydesk_backend/internal/properties"
	txdomain "realtydesk_backend/internal/transactions/domain"
	txservice "realtydesk_backend/internal/transactions/service"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LeadResolver is the slice of the lead service the pipeline needs.
type LeadResolver interface {
	Resolve(ctx context.Context, input leadservice.ResolveInput) (leadservice.ResolveResult, error)
	GenerateInsights(ctx context.Context, id uuid.UUID) (string, error)
}

// PropertyMatcher runs preference-driven searches for buyer leads.
type PropertyMatcher interface {
	SearchForLead(ctx context.Context, leadID uuid.UUID) (*properties.SearchResult, error)
}

// TransactionOpener opens transactions for seller intents.
type TransactionOpener interface {
	Create(ctx context.Context, input txservice.CreateInput) (*txservice.CreateResult, error)
}

// Orchestrator runs the end-to-end intake pipeline: parse, resolve the
// lead, open a transaction for sellers, match properties for buyers, and
// generate insights. Every step degrades to a usable default rather than
// aborting the flow.
type Orchestrator struct {
	parser  *Service
	leads   LeadResolver
	matcher PropertyMatcher
	deals   TransactionOpener
	bus     events.Bus
	log     *logger.Logger
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(parser *Service, leads LeadResolver, matcher PropertyMatcher, deals TransactionOpener, bus events.Bus, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		parser:  parser,
		leads:   leads,
		matcher: matcher,
		deals:   deals,
		bus:     bus,
		log:     log,
	}
}

// PipelineResult is the end-to-end intake outcome. Lead, Transaction,
// Matches, and Insights are present only for the steps that ran.
type PipelineResult struct {
	Parsed      ParsedIntake             `json:"parsed"`
	Lead        *leaddomain.Lead         `json:"lead,omitempty"`
	LeadCreated bool                     `json:"leadCreated"`
	Transaction *txdomain.Transaction    `json:"transaction,omitempty"`
	Matches     *properties.SearchResult `json:"matches,omitempty"`
	Insights    string                   `json:"insights,omitempty"`
}

// Run executes the pipeline for one free-text submission.
func (o *Orchestrator) Run(ctx context.Context, freeText, source string) (*PipelineResult, error) {
	parsed := o.parser.Parse(ctx, freeText)
	result := &PipelineResult{Parsed: parsed}

	if parsed.LeadInfo.Email == "" && parsed.LeadInfo.Phone == "" {
		// Without contact facts there is nothing to resolve against;
		// the caller still gets the parse.
		o.log.Info("intake without contact details, skipping lead resolution")
		return result, nil
	}

	resolved, err := o.leads.Resolve(ctx, leadservice.ResolveInput{
		Name:        parsed.LeadInfo.Name,
		Email:       parsed.LeadInfo.Email,
		Phone:       parsed.LeadInfo.Phone,
		LeadType:    leadTypeForIntent(parsed.Intent),
		Source:      source,
		Preferences: parsed.Preferences,
	})
	if err != nil {
		return nil, err
	}
	result.Lead = &resolved.Lead
	result.LeadCreated = resolved.Created

	if o.deals != nil && parsed.Intent == "sell" {
		if txn := o.openSellerTransaction(ctx, resolved.Lead.ID, parsed); txn != nil {
			result.Transaction = txn
		}
	}

	// Property matching and insight generation are independent; fan out.
	group, groupCtx := errgroup.WithContext(ctx)
	if o.matcher != nil && parsed.Intent != "sell" {
		group.Go(func() error {
			matches, err := o.matcher.SearchForLead(groupCtx, resolved.Lead.ID)
			if err != nil {
				o.log.Warn("intake property match failed", "lead_id", resolved.Lead.ID, "error", err)
				return nil
			}
			result.Matches = matches
			return nil
		})
	}
	group.Go(func() error {
		insights, err := o.leads.GenerateInsights(groupCtx, resolved.Lead.ID)
		if err != nil {
			o.log.Warn("intake insight generation skipped", "lead_id", resolved.Lead.ID, "error", err)
			return nil
		}
		result.Insights = insights
		return nil
	})
	_ = group.Wait()

	o.bus.Publish(ctx, events.IntakeResolved{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       resolved.Lead.ID,
		UsedFallback: parsed.UsedFallback,
	})
	return result, nil
}

func (o *Orchestrator) openSellerTransaction(ctx context.Context, leadID uuid.UUID, parsed ParsedIntake) *txdomain.Transaction {
	txType := txdomain.TransactionType(parsed.TransactionInfo.TransactionType)
	if !txdomain.ValidTransactionType(txType) {
		txType = txdomain.TypeSale
	}

	var listingPrice *float64
	if parsed.TransactionInfo.ListingPrice >= minPlausiblePriceUSD {
		price := parsed.TransactionInfo.ListingPrice
		listingPrice = &price
	}

	created, err := o.deals.Create(ctx, txservice.CreateInput{
		LeadID:          leadID,
		TransactionType: txType,
		ListingPrice:    listingPrice,
		ClosingDate:     parseClosingDate(parsed.TransactionInfo.ClosingDate),
	})
	if err != nil {
		o.log.Warn("intake transaction open failed", "lead_id", leadID, "error", err)
		return nil
	}
	return &created.Transaction
}

func leadTypeForIntent(intent string) string {
	if intent == "sell" {
		return string(leaddomain.LeadTypeSeller)
	}
	return string(leaddomain.LeadTypeBuyer)
}

func parseClosingDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}
	return nil
}
