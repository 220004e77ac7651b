// Package repository persists leads.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realtydesk_backend/internal/leads/domain"
	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate            = "leads.repository.create"
	opGetByID           = "leads.repository.get_by_id"
	opFindByContact     = "leads.repository.find_by_contact"
	opList              = "leads.repository.list"
	opUpdate            = "leads.repository.update"
	opUpdatePreferences = "leads.repository.update_preferences"
	opUpdateInsights    = "leads.repository.update_insights"
	opDelete            = "leads.repository.delete"
)

// Repository is the persistence contract for leads.
type Repository interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	// FindByContact looks up an existing lead by normalized email or phone.
	// Either argument may be empty; a lead matches when a non-empty argument
	// equals the stored value.
	FindByContact(ctx context.Context, email, phone string) (domain.Lead, error)
	List(ctx context.Context, limit, offset int) ([]domain.Lead, int, error)
	Update(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	UpdatePreferences(ctx context.Context, id uuid.UUID, preferences map[string]any) error
	UpdateInsights(ctx context.Context, id uuid.UUID, insights string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository stores leads in Postgres via pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed lead repository.
func NewPostgres(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const leadColumns = `id, name, email, phone, lead_type, source, preferences, ai_insights, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Preferences == nil {
		lead.Preferences = map[string]any{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, name, email, phone, lead_type, source, preferences, ai_insights)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+leadColumns,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.LeadType, lead.Source, lead.Preferences, lead.AIInsights,
	)
	created, err := scanLead(row)
	if err != nil {
		return domain.Lead{}, apperr.Internal(fmt.Sprintf("create lead failed: %v", err)).WithOp(opCreate)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound("lead not found").WithOp(opGetByID)
		}
		return domain.Lead{}, apperr.Internal(fmt.Sprintf("get lead failed: %v", err)).WithOp(opGetByID)
	}
	return lead, nil
}

func (r *PostgresRepository) FindByContact(ctx context.Context, email, phone string) (domain.Lead, error) {
	if email == "" && phone == "" {
		return domain.Lead{}, apperr.NotFound("lead not found").WithOp(opFindByContact)
	}

	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2)
		ORDER BY created_at ASC
		LIMIT 1
	`, email, phone)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound("lead not found").WithOp(opFindByContact)
		}
		return domain.Lead{}, apperr.Internal(fmt.Sprintf("find lead by contact failed: %v", err)).WithOp(opFindByContact)
	}
	return lead, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]domain.Lead, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count leads failed: %v", err)).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list leads failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0, limit)
	for rows.Next() {
		lead, scanErr := scanLead(rows)
		if scanErr != nil {
			return nil, 0, apperr.Internal(fmt.Sprintf("scan lead failed: %v", scanErr)).WithOp(opList)
		}
		leads = append(leads, lead)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("iterate leads failed: %v", rowsErr)).WithOp(opList)
	}

	return leads, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET name = $2, email = $3, phone = $4, lead_type = $5, source = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.LeadType, lead.Source,
	)
	updated, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound("lead not found").WithOp(opUpdate)
		}
		return domain.Lead{}, apperr.Internal(fmt.Sprintf("update lead failed: %v", err)).WithOp(opUpdate)
	}
	return updated, nil
}

func (r *PostgresRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, preferences map[string]any) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET preferences = $2, updated_at = now() WHERE id = $1
	`, id, preferences)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("update lead preferences failed: %v", err)).WithOp(opUpdatePreferences)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found").WithOp(opUpdatePreferences)
	}
	return nil
}

func (r *PostgresRepository) UpdateInsights(ctx context.Context, id uuid.UUID, insights string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET ai_insights = $2, updated_at = now() WHERE id = $1
	`, id, insights)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("update lead insights failed: %v", err)).WithOp(opUpdateInsights)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found").WithOp(opUpdateInsights)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("delete lead failed: %v", err)).WithOp(opDelete)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found").WithOp(opDelete)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (domain.Lead, error) {
	var lead domain.Lead
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.LeadType,
		&lead.Source, &lead.Preferences, &lead.AIInsights, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.CreatedAt = createdAt
	lead.UpdatedAt = updatedAt
	if lead.Preferences == nil {
		lead.Preferences = map[string]any{}
	}
	return lead, nil
}
