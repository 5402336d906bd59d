package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
)

type billingRepository struct {
	BaseRepository
}

func NewBillingRepository(db *sqlx.DB) repository.BillingRepository {
	return &billingRepository{NewBaseRepository(db)}
}

func (r *billingRepository) Upsert(ctx context.Context, b *model.Billing) error {
	query := `
		INSERT INTO billings (
			id, visit_id, tenant_id, cpt_codes, icd10_codes, modifiers,
			validated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (visit_id) DO UPDATE SET
			cpt_codes = EXCLUDED.cpt_codes,
			icd10_codes = EXCLUDED.icd10_codes,
			modifiers = EXCLUDED.modifiers,
			validated_by = EXCLUDED.validated_by,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.VisitID,
		b.TenantID,
		b.CPTCodes,
		b.ICD10Codes,
		b.Modifiers,
		b.ValidatedBy,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert billing: %w", err)
	}
	return nil
}

func (r *billingRepository) GetByVisit(ctx context.Context, visitID uuid.UUID) (*model.Billing, error) {
	query := `
		SELECT id, visit_id, tenant_id, cpt_codes, icd10_codes, modifiers,
			   validated_by, created_at, updated_at, deleted_at
		FROM billings
		WHERE visit_id = $1
	`
	var b model.Billing
	err := r.db.GetContext(ctx, &b, query, visitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get billing: %w", err)
	}
	return &b, nil
}

func (r *billingRepository) DeleteByVisit(ctx context.Context, visitID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM billings WHERE visit_id = $1`, visitID)
	if err != nil {
		return fmt.Errorf("failed to delete billing: %w", err)
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

// MarkValidatedTx records who the codes were validated for at sign time.
func (r *billingRepository) MarkValidatedTx(ctx context.Context, tx *sqlx.Tx, visitID, validatorID uuid.UUID) error {
	query := `UPDATE billings SET validated_by = $1, updated_at = $2 WHERE visit_id = $3`
	if _, err := tx.ExecContext(ctx, query, validatorID, time.Now(), visitID); err != nil {
		return fmt.Errorf("failed to mark billing validated: %w", err)
	}
	return nil
}
