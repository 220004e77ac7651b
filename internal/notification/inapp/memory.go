package inapp

import (
	"context"
	"sort"
	"sync"
	"time"

	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
)

// MemoryRepository is the in-memory Repository used in tests and
// unconfigured environments.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Notification
	dedup map[string]uuid.UUID
	now   func() time.Time
}

// NewMemoryRepository creates an empty in-memory notification repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: map[uuid.UUID]Notification{},
		dedup: map[string]uuid.UUID{},
		now:   time.Now,
	}
}

// SetClock overrides the repository clock for tests.
func (r *MemoryRepository) SetClock(now func() time.Time) { r.now = now }

func (r *MemoryRepository) Create(ctx context.Context, n Notification) (Notification, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.DedupKey != nil {
		if _, exists := r.dedup[*n.DedupKey]; exists {
			return Notification{}, false, nil
		}
	}

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Status = StatusUnread
	n.CreatedAt = r.now()
	n.UpdatedAt = n.CreatedAt
	r.items[n.ID] = n
	if n.DedupKey != nil {
		r.dedup[*n.DedupKey] = n.ID
	}
	return n, true, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.items[id]
	if !ok {
		return Notification{}, apperr.NotFound("notification not found").WithOp(opGet)
	}
	return n, nil
}

func (r *MemoryRepository) List(ctx context.Context, status Status, limit, offset int) ([]Notification, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Notification, 0, len(r.items))
	for _, n := range r.items {
		if status != "" && n.Status != status {
			continue
		}
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset >= total {
		return []Notification{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *MemoryRepository) MarkRead(ctx context.Context, id uuid.UUID) (Notification, error) {
	return r.mutate(id, func(n *Notification) {
		now := r.now()
		n.Status = StatusRead
		n.ReadAt = &now
		n.SnoozeUntil = nil
	})
}

func (r *MemoryRepository) MarkAllRead(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	changed := 0
	for id, n := range r.items {
		if n.Status != StatusUnread {
			continue
		}
		n.Status = StatusRead
		n.ReadAt = &now
		n.SnoozeUntil = nil
		n.UpdatedAt = now
		r.items[id] = n
		changed++
	}
	return changed, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok {
		return apperr.NotFound("notification not found").WithOp(opDelete)
	}
	if n.DedupKey != nil {
		delete(r.dedup, *n.DedupKey)
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) Snooze(ctx context.Context, id uuid.UUID, until time.Time) (Notification, error) {
	return r.mutate(id, func(n *Notification) {
		n.Status = StatusSnoozed
		n.SnoozeUntil = &until
	})
}

func (r *MemoryRepository) ListSnoozeDue(ctx context.Context, now time.Time) ([]Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]Notification, 0)
	for _, n := range r.items {
		if n.Status == StatusSnoozed && n.SnoozeUntil != nil && !n.SnoozeUntil.After(now) {
			due = append(due, n)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].SnoozeUntil.Before(*due[j].SnoozeUntil) })
	return due, nil
}

func (r *MemoryRepository) Wake(ctx context.Context, id uuid.UUID) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok || n.Status != StatusSnoozed {
		return Notification{}, apperr.NotFound("notification not found").WithOp(opUpdate)
	}
	n.Status = StatusUnread
	n.SnoozeUntil = nil
	n.UpdatedAt = r.now()
	r.items[id] = n
	return n, nil
}

func (r *MemoryRepository) mutate(id uuid.UUID, apply func(*Notification)) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok {
		return Notification{}, apperr.NotFound("notification not found").WithOp(opUpdate)
	}
	apply(&n)
	n.UpdatedAt = r.now()
	r.items[id] = n
	return n, nil
}

var _ Repository = (*MemoryRepository)(nil)
