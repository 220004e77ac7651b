package alerts

import (
	"context"
	"errors"
	"fmt"

	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opAlertUpsert  = "alerts.repository.upsert"
	opAlertGet     = "alerts.repository.get_by_id"
	opAlertList    = "alerts.repository.list"
	opAlertDismiss = "alerts.repository.dismiss"
)

// Repository is the persistence contract for smart alerts.
type Repository interface {
	// Upsert writes the alert for its (transaction, type) key. An existing
	// dismissed alert keeps its dismissed status; only the descriptive
	// fields are refreshed. The bool reports whether the key was new.
	Upsert(ctx context.Context, alert SmartAlert) (SmartAlert, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (SmartAlert, error)
	// List returns alerts newest first, optionally filtered by status
	// ("" means all).
	List(ctx context.Context, status Status) ([]SmartAlert, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]SmartAlert, error)
	Dismiss(ctx context.Context, id uuid.UUID) (SmartAlert, error)
}

// PostgresRepository stores smart alerts in Postgres via pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Postgres-backed alert repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const alertColumns = `id, transaction_id, alert_type, status, priority, title, message, details, created_at, updated_at`

func (r *PostgresRepository) Upsert(ctx context.Context, alert SmartAlert) (SmartAlert, bool, error) {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	// xmax = 0 distinguishes a fresh insert from a conflict update.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO smart_alerts (id, transaction_id, alert_type, status, priority, title, message, details)
		VALUES ($1, $2, $3, 'active', $4, $5, $6, $7)
		ON CONFLICT (transaction_id, alert_type) DO UPDATE SET
			priority = EXCLUDED.priority,
			title = EXCLUDED.title,
			message = EXCLUDED.message,
			details = EXCLUDED.details,
			status = CASE WHEN smart_alerts.status = 'dismissed' THEN 'dismissed' ELSE 'active' END,
			updated_at = now()
		RETURNING `+alertColumns+`, (xmax = 0) AS inserted`,
		alert.ID, alert.TransactionID, alert.AlertType, alert.Priority,
		alert.Title, alert.Message, alert.Details,
	)

	var stored SmartAlert
	var inserted bool
	if err := scanAlertInto(row, &stored, &inserted); err != nil {
		return SmartAlert{}, false, apperr.Internal(fmt.Sprintf("upsert alert failed: %v", err)).WithOp(opAlertUpsert)
	}
	return stored, inserted, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (SmartAlert, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM smart_alerts WHERE id = $1`, id)
	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SmartAlert{}, apperr.NotFound("alert not found").WithOp(opAlertGet)
		}
		return SmartAlert{}, apperr.Internal(fmt.Sprintf("get alert failed: %v", err)).WithOp(opAlertGet)
	}
	return alert, nil
}

func (r *PostgresRepository) List(ctx context.Context, status Status) ([]SmartAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM smart_alerts`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list alerts failed: %v", err)).WithOp(opAlertList)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (r *PostgresRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]SmartAlert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+alertColumns+`
		FROM smart_alerts
		WHERE transaction_id = $1
		ORDER BY updated_at DESC
	`, transactionID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list transaction alerts failed: %v", err)).WithOp(opAlertList)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (r *PostgresRepository) Dismiss(ctx context.Context, id uuid.UUID) (SmartAlert, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE smart_alerts
		SET status = 'dismissed', updated_at = now()
		WHERE id = $1
		RETURNING `+alertColumns,
		id,
	)
	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SmartAlert{}, apperr.NotFound("alert not found").WithOp(opAlertDismiss)
		}
		return SmartAlert{}, apperr.Internal(fmt.Sprintf("dismiss alert failed: %v", err)).WithOp(opAlertDismiss)
	}
	return alert, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (SmartAlert, error) {
	var alert SmartAlert
	err := row.Scan(
		&alert.ID, &alert.TransactionID, &alert.AlertType, &alert.Status, &alert.Priority,
		&alert.Title, &alert.Message, &alert.Details, &alert.CreatedAt, &alert.UpdatedAt,
	)
	return alert, err
}

func scanAlertInto(row rowScanner, alert *SmartAlert, inserted *bool) error {
	return row.Scan(
		&alert.ID, &alert.TransactionID, &alert.AlertType, &alert.Status, &alert.Priority,
		&alert.Title, &alert.Message, &alert.Details, &alert.CreatedAt, &alert.UpdatedAt,
		inserted,
	)
}

func collectAlerts(rows pgx.Rows) ([]SmartAlert, error) {
	alerts := make([]SmartAlert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan alert failed: %v", err)).WithOp(opAlertList)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate alerts failed: %v", err)).WithOp(opAlertList)
	}
	return alerts, nil
}

var _ Repository = (*PostgresRepository)(nil)
