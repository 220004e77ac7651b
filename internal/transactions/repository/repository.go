// Package repository persists transactions and their checklist items.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realtydesk_backend/internal/transactions/domain"
	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opTxCreate     = "transactions.repository.create"
	opTxGetByID    = "transactions.repository.get_by_id"
	opTxList       = "transactions.repository.list"
	opTxListActive = "transactions.repository.list_active"
	opTxUpdate     = "transactions.repository.update"
	opTxDelete     = "transactions.repository.delete"

	opItemCreate    = "checklist.repository.create"
	opItemBatch     = "checklist.repository.create_batch"
	opItemGetByID   = "checklist.repository.get_by_id"
	opItemList      = "checklist.repository.list_by_transaction"
	opItemUpdate    = "checklist.repository.update"
	opItemDelete    = "checklist.repository.delete"
	opItemDeleteAll = "checklist.repository.delete_by_transaction"
)

// TransactionRepository is the persistence contract for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, txn domain.Transaction) (domain.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	List(ctx context.Context, limit, offset int) ([]domain.Transaction, int, error)
	// ListActive returns all non-closed transactions, for background scans.
	ListActive(ctx context.Context) ([]domain.Transaction, error)
	Update(ctx context.Context, txn domain.Transaction) (domain.Transaction, error)
	// Delete removes the transaction; checklist items cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChecklistRepository is the persistence contract for checklist items.
type ChecklistRepository interface {
	Create(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error)
	CreateBatch(ctx context.Context, items []domain.ChecklistItem) ([]domain.ChecklistItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ChecklistItem, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.ChecklistItem, error)
	Update(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTransaction(ctx context.Context, transactionID uuid.UUID) error
}

// PostgresTransactionRepository stores transactions in Postgres via pgx.
type PostgresTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTransactions creates a Postgres-backed transaction repository.
func NewPostgresTransactions(pool *pgxpool.Pool) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{pool: pool}
}

const txColumns = `id, lead_id, transaction_type, current_stage, stage_history, property_address,
	listing_price, contract_price, closing_date, closed, created_at, updated_at`

func (r *PostgresTransactionRepository) Create(ctx context.Context, txn domain.Transaction) (domain.Transaction, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.StageHistory == nil {
		txn.StageHistory = []domain.StageHistoryEntry{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, lead_id, transaction_type, current_stage, stage_history,
			property_address, listing_price, contract_price, closing_date, closed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+txColumns,
		txn.ID, txn.LeadID, txn.TransactionType, txn.CurrentStage, txn.StageHistory,
		txn.PropertyAddress, txn.ListingPrice, txn.ContractPrice, txn.ClosingDate, txn.Closed,
	)
	created, err := scanTransaction(row)
	if err != nil {
		return domain.Transaction{}, apperr.Internal(fmt.Sprintf("create transaction failed: %v", err)).WithOp(opTxCreate)
	}
	return created, nil
}

func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Transaction{}, apperr.NotFound("transaction not found").WithOp(opTxGetByID)
		}
		return domain.Transaction{}, apperr.Internal(fmt.Sprintf("get transaction failed: %v", err)).WithOp(opTxGetByID)
	}
	return txn, nil
}

func (r *PostgresTransactionRepository) List(ctx context.Context, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count transactions failed: %v", err)).WithOp(opTxList)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list transactions failed: %v", err)).WithOp(opTxList)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("scan transactions failed: %v", err)).WithOp(opTxList)
	}
	return txns, total, nil
}

func (r *PostgresTransactionRepository) ListActive(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE closed = false
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list active transactions failed: %v", err)).WithOp(opTxListActive)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("scan active transactions failed: %v", err)).WithOp(opTxListActive)
	}
	return txns, nil
}

func (r *PostgresTransactionRepository) Update(ctx context.Context, txn domain.Transaction) (domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET current_stage = $2, stage_history = $3, property_address = $4, listing_price = $5,
			contract_price = $6, closing_date = $7, closed = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+txColumns,
		txn.ID, txn.CurrentStage, txn.StageHistory, txn.PropertyAddress,
		txn.ListingPrice, txn.ContractPrice, txn.ClosingDate, txn.Closed,
	)
	updated, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Transaction{}, apperr.NotFound("transaction not found").WithOp(opTxUpdate)
		}
		return domain.Transaction{}, apperr.Internal(fmt.Sprintf("update transaction failed: %v", err)).WithOp(opTxUpdate)
	}
	return updated, nil
}

func (r *PostgresTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("delete transaction failed: %v", err)).WithOp(opTxDelete)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("transaction not found").WithOp(opTxDelete)
	}
	return nil
}

// PostgresChecklistRepository stores checklist items in Postgres via pgx.
type PostgresChecklistRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresChecklist creates a Postgres-backed checklist repository.
func NewPostgresChecklist(pool *pgxpool.Pool) *PostgresChecklistRepository {
	return &PostgresChecklistRepository{pool: pool}
}

const itemColumns = `id, transaction_id, stage, parent_id, title, description, status, priority,
	weight, dependencies, stage_order, due_date, voice_memo_key, transcript, completed_at, created_at, updated_at`

func (r *PostgresChecklistRepository) Create(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO checklist_items (id, transaction_id, stage, parent_id, title, description,
			status, priority, weight, dependencies, stage_order, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+itemColumns,
		item.ID, item.TransactionID, item.Stage, item.ParentID, item.Title, item.Description,
		item.Status, item.Priority, item.Weight, item.Dependencies, item.StageOrder, item.DueDate,
	)
	created, err := scanItem(row)
	if err != nil {
		return domain.ChecklistItem{}, apperr.Internal(fmt.Sprintf("create checklist item failed: %v", err)).WithOp(opItemCreate)
	}
	return created, nil
}

func (r *PostgresChecklistRepository) CreateBatch(ctx context.Context, items []domain.ChecklistItem) ([]domain.ChecklistItem, error) {
	created := make([]domain.ChecklistItem, 0, len(items))
	for _, item := range items {
		inserted, err := r.Create(ctx, item)
		if err != nil {
			return nil, apperr.Internal(fmt.Sprintf("seed checklist batch failed: %v", err)).WithOp(opItemBatch)
		}
		created = append(created, inserted)
	}
	return created, nil
}

func (r *PostgresChecklistRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ChecklistItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM checklist_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ChecklistItem{}, apperr.NotFound("checklist item not found").WithOp(opItemGetByID)
		}
		return domain.ChecklistItem{}, apperr.Internal(fmt.Sprintf("get checklist item failed: %v", err)).WithOp(opItemGetByID)
	}
	return item, nil
}

func (r *PostgresChecklistRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.ChecklistItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM checklist_items
		WHERE transaction_id = $1
		ORDER BY stage_order ASC, created_at ASC
	`, transactionID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list checklist items failed: %v", err)).WithOp(opItemList)
	}
	defer rows.Close()

	items := make([]domain.ChecklistItem, 0)
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan checklist item failed: %v", scanErr)).WithOp(opItemList)
		}
		items = append(items, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate checklist items failed: %v", rowsErr)).WithOp(opItemList)
	}
	return items, nil
}

func (r *PostgresChecklistRepository) Update(ctx context.Context, item domain.ChecklistItem) (domain.ChecklistItem, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE checklist_items
		SET title = $2, description = $3, status = $4, priority = $5, weight = $6,
			dependencies = $7, due_date = $8, parent_id = $9, voice_memo_key = $10,
			transcript = $11, completed_at = $12, updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns,
		item.ID, item.Title, item.Description, item.Status, item.Priority, item.Weight,
		item.Dependencies, item.DueDate, item.ParentID, item.VoiceMemoKey,
		item.Transcript, item.CompletedAt,
	)
	updated, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ChecklistItem{}, apperr.NotFound("checklist item not found").WithOp(opItemUpdate)
		}
		return domain.ChecklistItem{}, apperr.Internal(fmt.Sprintf("update checklist item failed: %v", err)).WithOp(opItemUpdate)
	}
	return updated, nil
}

func (r *PostgresChecklistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM checklist_items WHERE id = $1 OR parent_id = $1`, id)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("delete checklist item failed: %v", err)).WithOp(opItemDelete)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("checklist item not found").WithOp(opItemDelete)
	}
	return nil
}

func (r *PostgresChecklistRepository) DeleteByTransaction(ctx context.Context, transactionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM checklist_items WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("cascade checklist delete failed: %v", err)).WithOp(opItemDeleteAll)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var txn domain.Transaction
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&txn.ID, &txn.LeadID, &txn.TransactionType, &txn.CurrentStage, &txn.StageHistory,
		&txn.PropertyAddress, &txn.ListingPrice, &txn.ContractPrice, &txn.ClosingDate,
		&txn.Closed, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn.CreatedAt = createdAt
	txn.UpdatedAt = updatedAt
	if txn.StageHistory == nil {
		txn.StageHistory = []domain.StageHistoryEntry{}
	}
	return txn, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

func scanItem(row rowScanner) (domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&item.ID, &item.TransactionID, &item.Stage, &item.ParentID, &item.Title,
		&item.Description, &item.Status, &item.Priority, &item.Weight, &item.Dependencies,
		&item.StageOrder, &item.DueDate, &item.VoiceMemoKey, &item.Transcript,
		&item.CompletedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	item.CreatedAt = createdAt
	item.UpdatedAt = updatedAt
	return item, nil
}
