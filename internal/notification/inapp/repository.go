package inapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate = "notification.inapp.repository.create"
	opGet    = "notification.inapp.repository.get_by_id"
	opList   = "notification.inapp.repository.list"
	opUpdate = "notification.inapp.repository.update_status"
	opDue    = "notification.inapp.repository.list_snooze_due"
	opDelete = "notification.inapp.repository.delete"
)

// Repository is the persistence contract for in-app notifications.
type Repository interface {
	// Create stores the notification. When its dedup key already exists the
	// insert is skipped and the bool is false.
	Create(ctx context.Context, n Notification) (Notification, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (Notification, error)
	// List returns notifications newest first, optionally filtered by
	// status ("" means all).
	List(ctx context.Context, status Status, limit, offset int) ([]Notification, int, error)
	MarkRead(ctx context.Context, id uuid.UUID) (Notification, error)
	// MarkAllRead marks every unread notification read and reports how many
	// rows changed.
	MarkAllRead(ctx context.Context) (int, error)
	Snooze(ctx context.Context, id uuid.UUID, until time.Time) (Notification, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListSnoozeDue returns snoozed notifications whose wake time has passed.
	ListSnoozeDue(ctx context.Context, now time.Time) ([]Notification, error)
	// Wake promotes a snoozed notification back to unread.
	Wake(ctx context.Context, id uuid.UUID) (Notification, error)
}

// PostgresRepository stores notifications in Postgres via pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Postgres-backed notification repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const notifColumns = `id, type, title, message, meta, status, snooze_until, dedup_key, read_at, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, n Notification) (Notification, bool, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, type, title, message, meta, status, dedup_key)
		VALUES ($1, $2, $3, $4, $5, 'unread', $6)
		ON CONFLICT (dedup_key) DO NOTHING
		RETURNING `+notifColumns,
		n.ID, n.Type, n.Title, n.Message, n.Meta, n.DedupKey,
	)
	created, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Dedup key collision; the insert was skipped.
			return Notification{}, false, nil
		}
		return Notification{}, false, apperr.Internal(fmt.Sprintf("create notification failed: %v", err)).WithOp(opCreate)
	}
	return created, true, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Notification, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+notifColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, apperr.NotFound("notification not found").WithOp(opGet)
		}
		return Notification{}, apperr.Internal(fmt.Sprintf("get notification failed: %v", err)).WithOp(opGet)
	}
	return n, nil
}

func (r *PostgresRepository) List(ctx context.Context, status Status, limit, offset int) ([]Notification, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count notifications failed: %v", err)).WithOp(opList)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM notifications%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, notifColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list notifications failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, 0, apperr.Internal(fmt.Sprintf("scan notification failed: %v", scanErr)).WithOp(opList)
		}
		items = append(items, n)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", rowsErr)).WithOp(opList)
	}
	return items, total, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id uuid.UUID) (Notification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notifications
		SET status = 'read', read_at = now(), snooze_until = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+notifColumns,
		id,
	)
	return r.scanUpdated(row, "mark notification read")
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status = 'read', read_at = now(), snooze_until = NULL, updated_at = now()
		WHERE status = 'unread'
	`)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("mark all notifications read failed: %v", err)).WithOp(opUpdate)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("delete notification failed: %v", err)).WithOp(opDelete)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found").WithOp(opDelete)
	}
	return nil
}

func (r *PostgresRepository) Snooze(ctx context.Context, id uuid.UUID, until time.Time) (Notification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notifications
		SET status = 'snoozed', snooze_until = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+notifColumns,
		id, until,
	)
	return r.scanUpdated(row, "snooze notification")
}

func (r *PostgresRepository) ListSnoozeDue(ctx context.Context, now time.Time) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notifColumns+`
		FROM notifications
		WHERE status = 'snoozed' AND snooze_until <= $1
		ORDER BY snooze_until ASC
	`, now)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list due notifications failed: %v", err)).WithOp(opDue)
	}
	defer rows.Close()

	due := make([]Notification, 0)
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan due notification failed: %v", scanErr)).WithOp(opDue)
		}
		due = append(due, n)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate due notifications failed: %v", rowsErr)).WithOp(opDue)
	}
	return due, nil
}

func (r *PostgresRepository) Wake(ctx context.Context, id uuid.UUID) (Notification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notifications
		SET status = 'unread', snooze_until = NULL, updated_at = now()
		WHERE id = $1 AND status = 'snoozed'
		RETURNING `+notifColumns,
		id,
	)
	return r.scanUpdated(row, "wake notification")
}

func (r *PostgresRepository) scanUpdated(row rowScanner, action string) (Notification, error) {
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, apperr.NotFound("notification not found").WithOp(opUpdate)
		}
		return Notification{}, apperr.Internal(fmt.Sprintf("%s failed: %v", action, err)).WithOp(opUpdate)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.Type, &n.Title, &n.Message, &n.Meta, &n.Status,
		&n.SnoozeUntil, &n.DedupKey, &n.ReadAt, &n.CreatedAt, &n.UpdatedAt,
	)
	return n, err
}

var _ Repository = (*PostgresRepository)(nil)
