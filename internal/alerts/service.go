package alerts

import (
	"context"
	"time"

	"realtydesk_backend/internal/email"
	"realtydesk_backend/internal/events"
	txrepo "realtydesk_backend/internal/transactions/repository"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Service owns alert generation, listing, and dismissal.
type Service struct {
	repo       Repository
	txns       txrepo.TransactionRepository
	items      txrepo.ChecklistRepository
	bus        events.Bus
	sender     email.Sender
	escalateTo string
	log        *logger.Logger
	now        func() time.Time
}

// NewService creates the alert service. escalateTo is the address urgent
// alerts are escalated to; empty disables escalation mail.
func NewService(repo Repository, txns txrepo.TransactionRepository, items txrepo.ChecklistRepository, bus events.Bus, sender email.Sender, escalateTo string, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		txns:       txns,
		items:      items,
		bus:        bus,
		sender:     sender,
		escalateTo: escalateTo,
		log:        log,
		now:        time.Now,
	}
}

// SetClock overrides the service clock for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// GenerateResult summarizes one generation run.
type GenerateResult struct {
	Scanned   int `json:"scanned"`
	Created   int `json:"created"`
	Refreshed int `json:"refreshed"`
}

// Generate scans all active transactions, upserts alerts for matched rules,
// and escalates newly created urgent alerts by email. Re-running with
// unchanged state refreshes alerts in place and never resurrects a
// dismissed one.
func (s *Service) Generate(ctx context.Context) (GenerateResult, error) {
	txns, err := s.txns.ListActive(ctx)
	if err != nil {
		return GenerateResult{}, err
	}

	result := GenerateResult{Scanned: len(txns)}
	now := s.now()
	for _, txn := range txns {
		items, err := s.items.ListByTransaction(ctx, txn.ID)
		if err != nil {
			s.log.Warn("alert scan: checklist load failed", "transaction_id", txn.ID, "error", err)
			continue
		}

		changed := false
		for _, candidate := range evaluateTransaction(txn, items, now) {
			stored, created, err := s.repo.Upsert(ctx, candidate)
			if err != nil {
				s.log.Warn("alert upsert failed", "transaction_id", txn.ID, "alert_type", candidate.AlertType, "error", err)
				continue
			}
			changed = true
			if created {
				result.Created++
				if stored.Priority == PriorityUrgent {
					s.escalate(ctx, stored)
				}
			} else {
				result.Refreshed++
			}
		}

		if changed {
			s.bus.Publish(ctx, events.AlertsChanged{
				BaseEvent:     events.NewBaseEvent(),
				TransactionID: txn.ID,
			})
		}
	}
	return result, nil
}

// List returns alerts, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]SmartAlert, error) {
	return s.repo.List(ctx, status)
}

// ListByTransaction returns one transaction's alerts.
func (s *Service) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]SmartAlert, error) {
	return s.repo.ListByTransaction(ctx, transactionID)
}

// Dismiss marks an alert dismissed. Later generation runs refresh its
// fields but leave it dismissed.
func (s *Service) Dismiss(ctx context.Context, id uuid.UUID) (SmartAlert, error) {
	alert, err := s.repo.Dismiss(ctx, id)
	if err != nil {
		return SmartAlert{}, err
	}
	s.bus.Publish(ctx, events.AlertsChanged{
		BaseEvent:     events.NewBaseEvent(),
		TransactionID: alert.TransactionID,
	})
	return alert, nil
}

func (s *Service) escalate(ctx context.Context, alert SmartAlert) {
	if s.sender == nil || s.escalateTo == "" {
		return
	}
	err := s.sender.SendAlertEscalation(ctx, s.escalateTo, email.EscalationData{
		AlertType:     string(alert.AlertType),
		Priority:      string(alert.Priority),
		Title:         alert.Title,
		Message:       alert.Message,
		TransactionID: alert.TransactionID.String(),
	})
	if err != nil {
		s.log.Warn("alert escalation email failed", "alert_id", alert.ID, "error", err)
		return
	}
	s.bus.Publish(ctx, events.AlertEscalated{
		BaseEvent:     events.NewBaseEvent(),
		AlertID:       alert.ID,
		TransactionID: alert.TransactionID,
		AlertType:     string(alert.AlertType),
	})
}
