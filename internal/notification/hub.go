// Package notification is the fanout side of the system: it pushes typed
// events to connected listeners and runs the two background scanners, one
// issuing nudges and one waking snoozed notifications.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"realtydesk_backend/internal/events"
	leaddomain "realtydesk_backend/internal/leads/domain"
	"realtydesk_backend/internal/notification/inapp"
	"realtydesk_backend/internal/notification/sse"
	txdomain "realtydesk_backend/internal/transactions/domain"
	txrepo "realtydesk_backend/internal/transactions/repository"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultNudgeInterval = 5 * time.Minute
	defaultWakeInterval  = time.Minute

	newLeadWindow     = time.Hour
	stalledAfter      = 3 * 24 * time.Hour
	leadScanBatchSize = 100
)

// Nudge reasons, also used in notification dedup keys.
const (
	nudgeNewLead      = "new_lead"
	nudgeOverdueTasks = "overdue_tasks"
	nudgeStalledDeal  = "stalled_deal"
)

// Broadcaster pushes a named event to connected listeners.
type Broadcaster interface {
	Broadcast(name string, payload any)
}

// LeadLister is the slice of the lead repository the nudge scanner needs.
type LeadLister interface {
	List(ctx context.Context, limit, offset int) ([]leaddomain.Lead, int, error)
}

// Hub runs the nudge and snooze-wake scanners on fixed intervals.
type Hub struct {
	leads         LeadLister
	txns          txrepo.TransactionRepository
	items         txrepo.ChecklistRepository
	notifications *inapp.Service
	stream        Broadcaster
	bus           events.Bus
	log           *logger.Logger
	now           func() time.Time

	nudgeInterval time.Duration
	wakeInterval  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewHub creates the hub. Zero intervals fall back to defaults.
func NewHub(leads LeadLister, txns txrepo.TransactionRepository, items txrepo.ChecklistRepository, notifications *inapp.Service, stream Broadcaster, bus events.Bus, nudgeInterval, wakeInterval time.Duration, log *logger.Logger) *Hub {
	if nudgeInterval <= 0 {
		nudgeInterval = defaultNudgeInterval
	}
	if wakeInterval <= 0 {
		wakeInterval = defaultWakeInterval
	}
	return &Hub{
		leads:         leads,
		txns:          txns,
		items:         items,
		notifications: notifications,
		stream:        stream,
		bus:           bus,
		log:           log,
		now:           time.Now,
		nudgeInterval: nudgeInterval,
		wakeInterval:  wakeInterval,
		stop:          make(chan struct{}),
	}
}

// SetClock overrides the hub clock for tests.
func (h *Hub) SetClock(now func() time.Time) { h.now = now }

// Start launches both scanner loops. Stop shuts them down.
func (h *Hub) Start(ctx context.Context) {
	h.wg.Add(2)
	go h.loop(ctx, h.nudgeInterval, func(ctx context.Context) {
		if _, err := h.ScanNudges(ctx); err != nil {
			h.log.Warn("nudge scan failed", "error", err)
		}
	})
	go h.loop(ctx, h.wakeInterval, func(ctx context.Context) {
		if _, err := h.WakeSnoozed(ctx); err != nil {
			h.log.Warn("snooze-wake scan failed", "error", err)
		}
	})
}

// Stop terminates the scanner loops and waits for them to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	h.wg.Wait()
}

func (h *Hub) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	defer h.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// ScanNudges evaluates the nudge rules once and returns the number of
// nudges issued. Dedup keys are bucketed by hour, so a condition nudges at
// most once per hour no matter how often the scanner runs.
func (h *Hub) ScanNudges(ctx context.Context) (int, error) {
	now := h.now()
	bucket := now.Truncate(time.Hour).Format("2006-01-02T15")

	active, err := h.txns.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	leadsWithDeals := make(map[uuid.UUID]bool, len(active))
	for _, txn := range active {
		leadsWithDeals[txn.LeadID] = true
	}

	issued := 0
	issued += h.scanNewLeads(ctx, now, bucket, leadsWithDeals)
	for _, txn := range active {
		issued += h.scanTransaction(ctx, txn, now, bucket)
	}
	return issued, nil
}

func (h *Hub) scanNewLeads(ctx context.Context, now time.Time, bucket string, leadsWithDeals map[uuid.UUID]bool) int {
	recent, _, err := h.leads.List(ctx, leadScanBatchSize, 0)
	if err != nil {
		h.log.Warn("nudge scan: lead list failed", "error", err)
		return 0
	}

	issued := 0
	for _, lead := range recent {
		if now.Sub(lead.CreatedAt) > newLeadWindow || leadsWithDeals[lead.ID] {
			continue
		}
		leadID := lead.ID
		message := fmt.Sprintf("New lead %s came in recently and has no deal yet", lead.Name)
		if h.issueNudge(ctx, nudgeNewLead, lead.ID, bucket, "New lead waiting", message, map[string]any{"leadId": lead.ID}) {
			h.bus.Publish(ctx, events.NudgeIssued{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    &leadID,
				Reason:    nudgeNewLead,
				Message:   message,
			})
			issued++
		}
	}
	return issued
}

func (h *Hub) scanTransaction(ctx context.Context, txn txdomain.Transaction, now time.Time, bucket string) int {
	issued := 0

	items, err := h.items.ListByTransaction(ctx, txn.ID)
	if err != nil {
		h.log.Warn("nudge scan: checklist load failed", "transaction_id", txn.ID, "error", err)
		items = nil
	}

	if overdue := countOverdue(items, now); overdue > 0 {
		message := fmt.Sprintf("%d task(s) on this deal are past due", overdue)
		if h.issueNudge(ctx, nudgeOverdueTasks, txn.ID, bucket, "Overdue tasks", message, map[string]any{"transactionId": txn.ID, "overdueCount": overdue}) {
			h.publishTransactionNudge(ctx, txn.ID, nudgeOverdueTasks, message)
			issued++
		}
	}

	if now.Sub(txn.UpdatedAt) >= stalledAfter {
		days := int(now.Sub(txn.UpdatedAt).Hours() / 24)
		message := fmt.Sprintf("No movement on this deal for %d days", days)
		if h.issueNudge(ctx, nudgeStalledDeal, txn.ID, bucket, "Deal going quiet", message, map[string]any{"transactionId": txn.ID, "daysIdle": days}) {
			h.publishTransactionNudge(ctx, txn.ID, nudgeStalledDeal, message)
			issued++
		}
	}
	return issued
}

func countOverdue(items []txdomain.ChecklistItem, now time.Time) int {
	children := txdomain.ChildrenByParent(items)
	overdue := 0
	for _, item := range items {
		if item.DueDate == nil || item.DueDate.After(now) {
			continue
		}
		if !txdomain.EffectiveCompleted(item, children[item.ID]) {
			overdue++
		}
	}
	return overdue
}

func (h *Hub) issueNudge(ctx context.Context, reason string, entityID uuid.UUID, bucket, title, message string, meta map[string]any) bool {
	_, created, err := h.notifications.Notify(ctx, inapp.NotifyParams{
		Type:     "nudge",
		Title:    title,
		Message:  message,
		Meta:     meta,
		DedupKey: fmt.Sprintf("nudge:%s:%s:%s", reason, entityID, bucket),
	})
	if err != nil {
		h.log.Warn("nudge notification failed", "reason", reason, "error", err)
		return false
	}
	return created
}

func (h *Hub) publishTransactionNudge(ctx context.Context, transactionID uuid.UUID, reason, message string) {
	id := transactionID
	h.bus.Publish(ctx, events.NudgeIssued{
		BaseEvent:     events.NewBaseEvent(),
		TransactionID: &id,
		Reason:        reason,
		Message:       message,
	})
}

// WakeSnoozed promotes every notification whose snooze has elapsed back to
// unread and emits one remind event per woken notification.
func (h *Hub) WakeSnoozed(ctx context.Context) (int, error) {
	woken, err := h.notifications.WakeDue(ctx, h.now())
	if err != nil {
		return 0, err
	}
	for _, n := range woken {
		h.stream.Broadcast(sse.EventNotificationsRemind, n)
	}
	return len(woken), nil
}
