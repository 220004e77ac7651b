package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"realtydesk_backend/internal/events"
	leaddomain "realtydesk_backend/internal/leads/domain"
	leadrepo "realtydesk_backend/internal/leads/repository"
	"realtydesk_backend/internal/notification/inapp"
	"realtydesk_backend/internal/notification/sse"
	txdomain "realtydesk_backend/internal/transactions/domain"
	txrepo "realtydesk_backend/internal/transactions/repository"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []sse.Event
}

func (f *fakeBroadcaster) Broadcast(name string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sse.Event{Name: name, Payload: payload})
}

func (f *fakeBroadcaster) countNamed(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.events {
		if e.Name == name {
			count++
		}
	}
	return count
}

type hubFixture struct {
	hub           *Hub
	notifications *inapp.Service
	notifRepo     *inapp.MemoryRepository
	leads         *leadrepo.MemoryRepository
	txns          *txrepo.MemoryTransactionRepository
	items         *txrepo.MemoryChecklistRepository
	stream        *fakeBroadcaster
	bus           *events.InMemoryBus
	now           time.Time
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	f := &hubFixture{now: time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	log := logger.New("test")
	f.bus = events.NewInMemoryBus(log)
	f.notifRepo = inapp.NewMemoryRepository()
	f.notifRepo.SetClock(clock)
	f.notifications = inapp.NewService(f.notifRepo, f.bus)
	f.leads = leadrepo.NewMemory()
	f.leads.SetClock(clock)
	f.txns = txrepo.NewMemoryTransactions()
	f.txns.SetClock(clock)
	f.items = txrepo.NewMemoryChecklist()
	f.items.SetClock(clock)
	f.stream = &fakeBroadcaster{}

	f.hub = NewHub(f.leads, f.txns, f.items, f.notifications, f.stream, f.bus, time.Minute, time.Minute, log)
	f.hub.SetClock(clock)
	return f
}

func (f *hubFixture) unreadCount(t *testing.T) int {
	t.Helper()
	_, total, err := f.notifications.List(context.Background(), inapp.StatusUnread, 100, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return total
}

func TestWakeSnoozed_PromotesAndRemindsOnce(t *testing.T) {
	f := newHubFixture(t)

	n, created, err := f.notifications.Notify(context.Background(), inapp.NotifyParams{
		Type:    "alert",
		Title:   "Closing date approaching",
		Message: "Closing in 2 days",
	})
	if err != nil || !created {
		t.Fatalf("notify: created=%v err=%v", created, err)
	}
	if _, err := f.notifications.Snooze(context.Background(), n.ID, f.now.Add(-time.Second)); err != nil {
		t.Fatalf("snooze: %v", err)
	}

	woken, err := f.hub.WakeSnoozed(context.Background())
	if err != nil {
		t.Fatalf("wake: %v", err)
	}
	if woken != 1 {
		t.Fatalf("woken = %d, want 1", woken)
	}

	got, err := f.notifRepo.GetByID(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if got.Status != inapp.StatusUnread {
		t.Errorf("status = %q, want unread", got.Status)
	}
	if got.SnoozeUntil != nil {
		t.Errorf("snoozeUntil not cleared: %v", got.SnoozeUntil)
	}
	if reminds := f.stream.countNamed(sse.EventNotificationsRemind); reminds != 1 {
		t.Fatalf("remind events = %d, want exactly 1", reminds)
	}

	// A second tick finds nothing due and reminds no one again.
	woken, err = f.hub.WakeSnoozed(context.Background())
	if err != nil {
		t.Fatalf("second wake: %v", err)
	}
	if woken != 0 {
		t.Errorf("second wake woke %d, want 0", woken)
	}
	if reminds := f.stream.countNamed(sse.EventNotificationsRemind); reminds != 1 {
		t.Errorf("remind events after second tick = %d, want still 1", reminds)
	}
}

func TestWakeSnoozed_FutureSnoozeStaysParked(t *testing.T) {
	f := newHubFixture(t)

	n, _, err := f.notifications.Notify(context.Background(), inapp.NotifyParams{
		Type:    "alert",
		Title:   "Overdue tasks",
		Message: "3 tasks past due",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if _, err := f.notifications.Snooze(context.Background(), n.ID, f.now.Add(time.Hour)); err != nil {
		t.Fatalf("snooze: %v", err)
	}

	woken, err := f.hub.WakeSnoozed(context.Background())
	if err != nil {
		t.Fatalf("wake: %v", err)
	}
	if woken != 0 {
		t.Fatalf("woken = %d, want 0 before snooze elapses", woken)
	}

	got, _ := f.notifRepo.GetByID(context.Background(), n.ID)
	if got.Status != inapp.StatusSnoozed {
		t.Errorf("status = %q, want still snoozed", got.Status)
	}
}

func TestScanNudges_NewLeadWithoutDeal(t *testing.T) {
	f := newHubFixture(t)

	if _, err := f.leads.Create(context.Background(), leaddomain.Lead{
		Name:     "Dana Fisher",
		Email:    "dana@example.com",
		LeadType: leaddomain.LeadTypeBuyer,
	}); err != nil {
		t.Fatalf("create lead: %v", err)
	}

	issued, err := f.hub.ScanNudges(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if issued != 1 {
		t.Fatalf("issued = %d, want 1", issued)
	}
	if f.unreadCount(t) != 1 {
		t.Fatalf("unread = %d, want 1", f.unreadCount(t))
	}
}

func TestScanNudges_HourBucketDeduplicates(t *testing.T) {
	f := newHubFixture(t)

	if _, err := f.leads.Create(context.Background(), leaddomain.Lead{Name: "Dana Fisher"}); err != nil {
		t.Fatalf("create lead: %v", err)
	}

	if _, err := f.hub.ScanNudges(context.Background()); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	issued, err := f.hub.ScanNudges(context.Background())
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if issued != 0 {
		t.Errorf("second scan issued = %d, want 0 within the same hour", issued)
	}
	if f.unreadCount(t) != 1 {
		t.Fatalf("unread = %d, want 1 after dedup", f.unreadCount(t))
	}

	// The next hour bucket nudges again for the same persisting condition.
	f.now = f.now.Add(30 * time.Minute)
	issued, err = f.hub.ScanNudges(context.Background())
	if err != nil {
		t.Fatalf("third scan: %v", err)
	}
	if issued != 1 {
		t.Errorf("next-hour scan issued = %d, want 1", issued)
	}
	if f.unreadCount(t) != 2 {
		t.Errorf("unread = %d, want 2 across two hour buckets", f.unreadCount(t))
	}
}

func TestScanNudges_OverdueAndStalledDeal(t *testing.T) {
	f := newHubFixture(t)

	txn, err := f.txns.Create(context.Background(), txdomain.Transaction{
		LeadID:          uuid.New(),
		TransactionType: txdomain.TypeSale,
		CurrentStage:    txdomain.StageListing,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	f.txns.Touch(txn.ID, f.now.Add(-4*24*time.Hour))

	due := f.now.Add(-time.Hour)
	if _, err := f.items.Create(context.Background(), txdomain.ChecklistItem{
		TransactionID: txn.ID,
		Stage:         txdomain.StageListing,
		Title:         "Schedule photography",
		Status:        txdomain.StatusNotStarted,
		Priority:      txdomain.PriorityMedium,
		DueDate:       &due,
	}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	issued, err := f.hub.ScanNudges(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if issued != 2 {
		t.Fatalf("issued = %d, want 2 (overdue + stalled)", issued)
	}

	items, total, err := f.notifications.List(context.Background(), "", 100, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("total notifications = %d, want 2", total)
	}
	seen := map[string]bool{}
	for _, n := range items {
		seen[n.Title] = true
	}
	if !seen["Overdue tasks"] || !seen["Deal going quiet"] {
		t.Errorf("unexpected notification titles: %v", seen)
	}
}

func TestScanNudges_LeadWithActiveDealNotNudged(t *testing.T) {
	f := newHubFixture(t)

	lead, err := f.leads.Create(context.Background(), leaddomain.Lead{Name: "Dana Fisher"})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if _, err := f.txns.Create(context.Background(), txdomain.Transaction{
		LeadID:          lead.ID,
		TransactionType: txdomain.TypeSale,
		CurrentStage:    txdomain.StagePreListing,
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	issued, err := f.hub.ScanNudges(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if issued != 0 {
		t.Fatalf("issued = %d, want 0 for a lead already in a deal", issued)
	}
}
