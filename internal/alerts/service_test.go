package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"realtydesk_backend/internal/email"
	"realtydesk_backend/internal/events"
	txdomain "realtydesk_backend/internal/transactions/domain"
	txrepo "realtydesk_backend/internal/transactions/repository"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	mu    sync.Mutex
	sends []email.EscalationData
}

func (f *fakeSender) SendAlertEscalation(ctx context.Context, toEmail string, data email.EscalationData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, data)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

type alertFixture struct {
	svc    *Service
	repo   *MemoryRepository
	txns   *txrepo.MemoryTransactionRepository
	items  *txrepo.MemoryChecklistRepository
	sender *fakeSender
	now    time.Time
}

func newAlertFixture(t *testing.T) *alertFixture {
	t.Helper()
	f := &alertFixture{now: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.repo = NewMemoryRepository()
	f.repo.SetClock(clock)
	f.txns = txrepo.NewMemoryTransactions()
	f.txns.SetClock(clock)
	f.items = txrepo.NewMemoryChecklist()
	f.items.SetClock(clock)

	log := logger.New("test")
	f.sender = &fakeSender{}
	f.svc = NewService(f.repo, f.txns, f.items, events.NewInMemoryBus(log), f.sender, "broker@example.com", log)
	f.svc.SetClock(clock)
	return f
}

func (f *alertFixture) createTransaction(t *testing.T, txn txdomain.Transaction) txdomain.Transaction {
	t.Helper()
	if txn.TransactionType == "" {
		txn.TransactionType = txdomain.TypeSale
	}
	if txn.CurrentStage == "" {
		txn.CurrentStage = txdomain.InitialStage(txn.TransactionType)
	}
	txn.LeadID = uuid.New()
	created, err := f.txns.Create(context.Background(), txn)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return created
}

func (f *alertFixture) addItem(t *testing.T, item txdomain.ChecklistItem) txdomain.ChecklistItem {
	t.Helper()
	if item.Status == "" {
		item.Status = txdomain.StatusNotStarted
	}
	if item.Priority == "" {
		item.Priority = txdomain.PriorityMedium
	}
	created, err := f.items.Create(context.Background(), item)
	if err != nil {
		t.Fatalf("create checklist item: %v", err)
	}
	return created
}

func TestGenerate_OverdueUrgentEscalates(t *testing.T) {
	f := newAlertFixture(t)
	txn := f.createTransaction(t, txdomain.Transaction{})

	due := f.now.Add(-5 * 24 * time.Hour)
	f.addItem(t, txdomain.ChecklistItem{
		TransactionID: txn.ID,
		Stage:         txn.CurrentStage,
		Title:         "Order title search",
		Priority:      txdomain.PriorityUrgent,
		DueDate:       &due,
	})

	result, err := f.svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("created = %d, want 1", result.Created)
	}

	alerts, err := f.repo.ListByTransaction(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	alert := alerts[0]
	if alert.AlertType != TypeOverdueTasks {
		t.Errorf("alert type = %q, want %q", alert.AlertType, TypeOverdueTasks)
	}
	if alert.Priority != PriorityUrgent {
		t.Errorf("priority = %q, want urgent", alert.Priority)
	}
	if alert.Status != StatusActive {
		t.Errorf("status = %q, want active", alert.Status)
	}

	if f.sender.count() != 1 {
		t.Fatalf("escalation emails = %d, want 1", f.sender.count())
	}
	if f.sender.sends[0].AlertType != string(TypeOverdueTasks) {
		t.Errorf("escalated type = %q, want %q", f.sender.sends[0].AlertType, TypeOverdueTasks)
	}
}

func TestGenerate_OverdueWithoutUrgentItemIsHigh(t *testing.T) {
	f := newAlertFixture(t)
	txn := f.createTransaction(t, txdomain.Transaction{})

	due := f.now.Add(-4 * 24 * time.Hour)
	f.addItem(t, txdomain.ChecklistItem{
		TransactionID: txn.ID,
		Stage:         txn.CurrentStage,
		Title:         "Schedule photography",
		Priority:      txdomain.PriorityMedium,
		DueDate:       &due,
	})

	if _, err := f.svc.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	alerts, _ := f.repo.ListByTransaction(context.Background(), txn.ID)
	if len(alerts) != 1 || alerts[0].Priority != PriorityHigh {
		t.Fatalf("want one high-priority alert, got %+v", alerts)
	}
	if f.sender.count() != 0 {
		t.Errorf("escalation emails = %d, want 0 for non-urgent", f.sender.count())
	}
}

func TestGenerate_RecentDueDateDoesNotFire(t *testing.T) {
	f := newAlertFixture(t)
	txn := f.createTransaction(t, txdomain.Transaction{})

	due := f.now.Add(-2 * 24 * time.Hour)
	f.addItem(t, txdomain.ChecklistItem{
		TransactionID: txn.ID,
		Stage:         txn.CurrentStage,
		Title:         "Only two days late",
		DueDate:       &due,
	})

	if _, err := f.svc.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	alerts, _ := f.repo.ListByTransaction(context.Background(), txn.ID)
	if len(alerts) != 0 {
		t.Fatalf("got %d alerts, want 0 inside the grace window", len(alerts))
	}
}

func TestGenerate_RerunIsIdempotent(t *testing.T) {
	f := newAlertFixture(t)
	txn := f.createTransaction(t, txdomain.Transaction{})
	f.txns.Touch(txn.ID, f.now.Add(-9*24*time.Hour))

	first, err := f.svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if first.Created != 1 || first.Refreshed != 0 {
		t.Fatalf("first run created=%d refreshed=%d, want 1/0", first.Created, first.Refreshed)
	}

	second, err := f.svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if second.Created != 0 || second.Refreshed != 1 {
		t.Fatalf("second run created=%d refreshed=%d, want 0/1", second.Created, second.Refreshed)
	}

	alerts, _ := f.repo.ListByTransaction(context.Background(), txn.ID)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts after rerun, want 1", len(alerts))
	}
}

func TestGenerate_DismissedInactivityStaysDismissed(t *testing.T) {
	f := newAlertFixture(t)
	txn := f.createTransaction(t, txdomain.Transaction{})
	f.txns.Touch(txn.ID, f.now.Add(-8*24*time.Hour))

	if _, err := f.svc.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	alerts, _ := f.repo.ListByTransaction(context.Background(), txn.ID)
	if len(alerts) != 1 || alerts[0].AlertType != TypeDealInactivity {
		t.Fatalf("want one deal_inactivity alert, got %+v", alerts)
	}
	firstMessage := alerts[0].Message

	if _, err := f.svc.Dismiss(context.Background(), alerts[0].ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	// Two more idle days pass; the deal is still stale.
	f.now = f.now.Add(2 * 24 * time.Hour)

	result, err := f.svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if result.Created != 0 || result.Refreshed != 1 {
		t.Fatalf("regenerate created=%d refreshed=%d, want 0/1", result.Created, result.Refreshed)
	}

	alerts, _ = f.repo.ListByTransaction(context.Background(), txn.ID)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].Status != StatusDismissed {
		t.Errorf("status = %q, want dismissed after refresh", alerts[0].Status)
	}
	if alerts[0].Message == firstMessage {
		t.Errorf("message was not refreshed: %q", alerts[0].Message)
	}
}

func TestGenerate_ClosingApproachingPriorities(t *testing.T) {
	f := newAlertFixture(t)

	cases := []struct {
		name     string
		daysOut  int
		priority Priority
	}{
		{"within three days is urgent", 2, PriorityUrgent},
		{"within a week is high", 5, PriorityHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			closing := f.now.Add(time.Duration(tc.daysOut) * 24 * time.Hour)
			txn := f.createTransaction(t, txdomain.Transaction{
				CurrentStage: txdomain.StageEscrowClosing,
				ClosingDate:  &closing,
			})
			f.addItem(t, txdomain.ChecklistItem{
				TransactionID: txn.ID,
				Stage:         txdomain.StageEscrowClosing,
				Title:         "Final walkthrough",
			})

			if _, err := f.svc.Generate(context.Background()); err != nil {
				t.Fatalf("generate: %v", err)
			}
			alerts, _ := f.repo.ListByTransaction(context.Background(), txn.ID)
			var found *SmartAlert
			for i := range alerts {
				if alerts[i].AlertType == TypeClosingApproaching {
					found = &alerts[i]
				}
			}
			if found == nil {
				t.Fatalf("no closing_approaching alert, got %+v", alerts)
			}
			if found.Priority != tc.priority {
				t.Errorf("priority = %q, want %q", found.Priority, tc.priority)
			}
		})
	}
}

func TestGenerate_ClosingWithCompleteStageDoesNotFire(t *testing.T) {
	f := newAlertFixture(t)
	closing := f.now.Add(2 * 24 * time.Hour)
	txn := f.createTransaction(t, txdomain.Transaction{
		CurrentStage: txdomain.StageEscrowClosing,
		ClosingDate:  &closing,
	})
	f.addItem(t, txdomain.ChecklistItem{
		TransactionID: txn.ID,
		Stage:         txdomain.StageEscrowClosing,
		Title:         "Final walkthrough",
		Status:        txdomain.StatusCompleted,
	})

	if _, err := f.svc.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	alerts, _ := f.repo.ListByTransaction(context.Background(), txn.ID)
	for _, alert := range alerts {
		if alert.AlertType == TypeClosingApproaching {
			t.Fatalf("closing alert fired with no incomplete stage items")
		}
	}
}

func TestGenerate_SkipsClosedTransactions(t *testing.T) {
	f := newAlertFixture(t)
	txn := f.createTransaction(t, txdomain.Transaction{Closed: true})
	f.txns.Touch(txn.ID, f.now.Add(-30*24*time.Hour))

	result, err := f.svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Scanned != 0 {
		t.Errorf("scanned = %d, want 0", result.Scanned)
	}
	alerts, _ := f.repo.List(context.Background(), "")
	if len(alerts) != 0 {
		t.Fatalf("got %d alerts for a closed deal, want 0", len(alerts))
	}
}

func TestGenerate_EscalatesOnlyOnCreation(t *testing.T) {
	f := newAlertFixture(t)
	txn := f.createTransaction(t, txdomain.Transaction{})

	due := f.now.Add(-5 * 24 * time.Hour)
	f.addItem(t, txdomain.ChecklistItem{
		TransactionID: txn.ID,
		Stage:         txn.CurrentStage,
		Title:         "Order title search",
		Priority:      txdomain.PriorityUrgent,
		DueDate:       &due,
	})

	if _, err := f.svc.Generate(context.Background()); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if _, err := f.svc.Generate(context.Background()); err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if f.sender.count() != 1 {
		t.Fatalf("escalation emails = %d, want exactly 1", f.sender.count())
	}
}
