package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
)

type procedureScopeRepository struct {
	BaseRepository
}

func NewProcedureScopeRepository(db *sqlx.DB) repository.ProcedureScopeRepository {
	return &procedureScopeRepository{NewBaseRepository(db)}
}

func (r *procedureScopeRepository) Create(ctx context.Context, scope *model.ProcedureScope) error {
	query := `
		INSERT INTO procedure_scopes (
			id, tenant_id, procedure_code, procedure_name,
			category, allowed_credentials, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		scope.ID,
		scope.TenantID,
		scope.ProcedureCode,
		scope.ProcedureName,
		scope.Category,
		scope.AllowedCredentials,
		scope.CreatedAt,
		scope.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create procedure scope: %w", err)
	}
	return nil
}

func (r *procedureScopeRepository) Update(ctx context.Context, scope *model.ProcedureScope) error {
	query := `
		UPDATE procedure_scopes
		SET procedure_name = $1, category = $2, allowed_credentials = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		scope.ProcedureName,
		scope.Category,
		scope.AllowedCredentials,
		scope.UpdatedAt,
		scope.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update procedure scope: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *procedureScopeRepository) Get(ctx context.Context, id uuid.UUID) (*model.ProcedureScope, error) {
	query := `
		SELECT id, tenant_id, procedure_code, procedure_name,
			   category, allowed_credentials, created_at, updated_at, deleted_at
		FROM procedure_scopes
		WHERE id = $1
	`
	var scope model.ProcedureScope
	err := r.db.GetContext(ctx, &scope, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get procedure scope: %w", err)
	}
	return &scope, nil
}

func (r *procedureScopeRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*model.ProcedureScope, error) {
	query := `
		SELECT id, tenant_id, procedure_code, procedure_name,
			   category, allowed_credentials, created_at, updated_at, deleted_at
		FROM procedure_scopes
		WHERE tenant_id = $1
		ORDER BY procedure_code
	`
	var scopes []*model.ProcedureScope
	if err := r.db.SelectContext(ctx, &scopes, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list procedure scopes: %w", err)
	}
	return scopes, nil
}
