package alerts

import (
	"context"
	"sort"
	"sync"
	"time"

	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
)

type alertKey struct {
	transactionID uuid.UUID
	alertType     AlertType
}

// MemoryRepository is the in-memory Repository used in tests and
// unconfigured environments.
type MemoryRepository struct {
	mu     sync.RWMutex
	alerts map[alertKey]SmartAlert
	now    func() time.Time
}

// NewMemoryRepository creates an empty in-memory alert repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		alerts: map[alertKey]SmartAlert{},
		now:    time.Now,
	}
}

// SetClock overrides the repository clock for tests.
func (r *MemoryRepository) SetClock(now func() time.Time) { r.now = now }

func (r *MemoryRepository) Upsert(ctx context.Context, alert SmartAlert) (SmartAlert, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := alertKey{alert.TransactionID, alert.AlertType}
	existing, ok := r.alerts[key]
	if !ok {
		if alert.ID == uuid.Nil {
			alert.ID = uuid.New()
		}
		alert.Status = StatusActive
		alert.CreatedAt = r.now()
		alert.UpdatedAt = alert.CreatedAt
		r.alerts[key] = alert
		return alert, true, nil
	}

	existing.Priority = alert.Priority
	existing.Title = alert.Title
	existing.Message = alert.Message
	existing.Details = alert.Details
	if existing.Status != StatusDismissed {
		existing.Status = StatusActive
	}
	existing.UpdatedAt = r.now()
	r.alerts[key] = existing
	return existing, false, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (SmartAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, alert := range r.alerts {
		if alert.ID == id {
			return alert, nil
		}
	}
	return SmartAlert{}, apperr.NotFound("alert not found").WithOp(opAlertGet)
}

func (r *MemoryRepository) List(ctx context.Context, status Status) ([]SmartAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alerts := make([]SmartAlert, 0, len(r.alerts))
	for _, alert := range r.alerts {
		if status != "" && alert.Status != status {
			continue
		}
		alerts = append(alerts, alert)
	}
	sortByUpdated(alerts)
	return alerts, nil
}

func (r *MemoryRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]SmartAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alerts := make([]SmartAlert, 0)
	for _, alert := range r.alerts {
		if alert.TransactionID == transactionID {
			alerts = append(alerts, alert)
		}
	}
	sortByUpdated(alerts)
	return alerts, nil
}

func (r *MemoryRepository) Dismiss(ctx context.Context, id uuid.UUID) (SmartAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, alert := range r.alerts {
		if alert.ID == id {
			alert.Status = StatusDismissed
			alert.UpdatedAt = r.now()
			r.alerts[key] = alert
			return alert, nil
		}
	}
	return SmartAlert{}, apperr.NotFound("alert not found").WithOp(opAlertDismiss)
}

func sortByUpdated(alerts []SmartAlert) {
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].UpdatedAt.After(alerts[j].UpdatedAt) })
}

var _ Repository = (*MemoryRepository)(nil)
