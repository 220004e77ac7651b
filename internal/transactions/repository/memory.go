package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"realtydesk_backend/internal/transactions/domain"
	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
)

// MemoryTransactionRepository is the in-memory TransactionRepository used in
// tests and unconfigured environments.
type MemoryTransactionRepository struct {
	mu   sync.RWMutex
	txns map[uuid.UUID]domain.Transaction
	now  func() time.Time
}

// NewMemoryTransactions creates an empty in-memory transaction repository.
func NewMemoryTransactions() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		txns: map[uuid.UUID]domain.Transaction{},
		now:  time.Now,
	}
}

// SetClock overrides the repository clock for tests.
func (r *MemoryTransactionRepository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *MemoryTransactionRepository) Create(ctx context.Context, txn domain.Transaction) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.StageHistory == nil {
		txn.StageHistory = []domain.StageHistoryEntry{}
	}
	txn.CreatedAt = r.now()
	txn.UpdatedAt = txn.CreatedAt
	r.txns[txn.ID] = txn
	return txn, nil
}

func (r *MemoryTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txn, ok := r.txns[id]
	if !ok {
		return domain.Transaction{}, apperr.NotFound("transaction not found").WithOp(opTxGetByID)
	}
	return txn, nil
}

func (r *MemoryTransactionRepository) List(ctx context.Context, limit, offset int) ([]domain.Transaction, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sortedLocked()
	total := len(all)
	if offset >= total {
		return []domain.Transaction{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *MemoryTransactionRepository) ListActive(ctx context.Context) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]domain.Transaction, 0, len(r.txns))
	for _, txn := range r.sortedLocked() {
		if txn.Active() {
			active = append(active, txn)
		}
	}
	return active, nil
}

func (r *MemoryTransactionRepository) Update(ctx context.Context, txn domain.Transaction) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.txns[txn.ID]
	if !ok {
		return domain.Transaction{}, apperr.NotFound("transaction not found").WithOp(opTxUpdate)
	}
	txn.CreatedAt = existing.CreatedAt
	txn.UpdatedAt = r.now()
	r.txns[txn.ID] = txn
	return txn, nil
}

func (r *MemoryTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.txns[id]; !ok {
		return apperr.NotFound("transaction not found").WithOp(opTxDelete)
	}
	delete(r.txns, id)
	return nil
}

// Touch backdates a transaction's updated_at, for inactivity tests.
func (r *MemoryTransactionRepository) Touch(id uuid.UUID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if txn, ok := r.txns[id]; ok {
		txn.UpdatedAt = at
		r.txns[id] = txn
	}
}

func (r *MemoryTransactionRepository) sortedLocked() []domain.Transaction {
	all := make([]domain.Transaction, 0, len(r.txns))
	for _, txn := range r.txns {
		all = append(all, txn)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all
}

// MemoryChecklistRepository is the in-memory ChecklistRepository.
type MemoryChecklistRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.ChecklistItem
	now   func() time.Time
}

// NewMemoryChecklist creates an empty in-memory checklist repository.
func NewMemoryChecklist() *MemoryChecklistRepository {
	return &MemoryChecklistRepository{
		items: map[uuid.UUID]domain.ChecklistItem{},
		now:   time.Now,
	}
}

// SetClock overrides the repository clock for tests.
func (r *MemoryChecklistRepository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *MemoryChecklistRepository) Create(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(item), nil
}

func (r *MemoryChecklistRepository) CreateBatch(ctx context.Context, items []domain.ChecklistItem) ([]domain.ChecklistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := make([]domain.ChecklistItem, 0, len(items))
	for _, item := range items {
		created = append(created, r.createLocked(item))
	}
	return created, nil
}

func (r *MemoryChecklistRepository) createLocked(item domain.ChecklistItem) domain.ChecklistItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = r.now()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = item
	return item
}

func (r *MemoryChecklistRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ChecklistItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.ChecklistItem{}, apperr.NotFound("checklist item not found").WithOp(opItemGetByID)
	}
	return item, nil
}

func (r *MemoryChecklistRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.ChecklistItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.ChecklistItem, 0)
	for _, item := range r.items {
		if item.TransactionID == transactionID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].StageOrder != items[j].StageOrder {
			return items[i].StageOrder < items[j].StageOrder
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *MemoryChecklistRepository) Update(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return domain.ChecklistItem{}, apperr.NotFound("checklist item not found").WithOp(opItemUpdate)
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = r.now()
	r.items[item.ID] = item
	return item, nil
}

func (r *MemoryChecklistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return apperr.NotFound("checklist item not found").WithOp(opItemDelete)
	}
	delete(r.items, id)
	for childID, child := range r.items {
		if child.ParentID != nil && *child.ParentID == id {
			delete(r.items, childID)
		}
	}
	return nil
}

func (r *MemoryChecklistRepository) DeleteByTransaction(ctx context.Context, transactionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.TransactionID == transactionID {
			delete(r.items, id)
		}
	}
	return nil
}

var (
	_ TransactionRepository = (*MemoryTransactionRepository)(nil)
	_ ChecklistRepository   = (*MemoryChecklistRepository)(nil)
)
