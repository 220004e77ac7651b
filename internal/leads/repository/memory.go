package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"realtydesk_backend/internal/leads/domain"
	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]domain.Lead
	now   func() time.Time
}

// NewMemory creates an empty in-memory lead repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		leads: make(map[uuid.UUID]domain.Lead),
		now:   time.Now,
	}
}

// SetClock overrides the repository clock for tests.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *MemoryRepository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Preferences == nil {
		lead.Preferences = map[string]any{}
	}
	lead.CreatedAt = r.now()
	lead.UpdatedAt = lead.CreatedAt
	r.leads[lead.ID] = lead
	return lead, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return domain.Lead{}, apperr.NotFound("lead not found").WithOp(opGetByID)
	}
	return lead, nil
}

func (r *MemoryRepository) FindByContact(ctx context.Context, email, phone string) (domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []domain.Lead
	for _, lead := range r.leads {
		if (email != "" && lead.Email == email) || (phone != "" && lead.Phone == phone) {
			matches = append(matches, lead)
		}
	}
	if len(matches) == 0 {
		return domain.Lead{}, apperr.NotFound("lead not found").WithOp(opFindByContact)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches[0], nil
}

func (r *MemoryRepository) List(ctx context.Context, limit, offset int) ([]domain.Lead, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		all = append(all, lead)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset >= total {
		return []domain.Lead{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *MemoryRepository) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.leads[lead.ID]
	if !ok {
		return domain.Lead{}, apperr.NotFound("lead not found").WithOp(opUpdate)
	}
	existing.Name = lead.Name
	existing.Email = lead.Email
	existing.Phone = lead.Phone
	existing.LeadType = lead.LeadType
	existing.Source = lead.Source
	existing.UpdatedAt = r.now()
	r.leads[lead.ID] = existing
	return existing, nil
}

func (r *MemoryRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, preferences map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return apperr.NotFound("lead not found").WithOp(opUpdatePreferences)
	}
	lead.Preferences = preferences
	lead.UpdatedAt = r.now()
	r.leads[id] = lead
	return nil
}

func (r *MemoryRepository) UpdateInsights(ctx context.Context, id uuid.UUID, insights string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return apperr.NotFound("lead not found").WithOp(opUpdateInsights)
	}
	lead.AIInsights = &insights
	lead.UpdatedAt = r.now()
	r.leads[id] = lead
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[id]; !ok {
		return apperr.NotFound("lead not found").WithOp(opDelete)
	}
	delete(r.leads, id)
	return nil
}
