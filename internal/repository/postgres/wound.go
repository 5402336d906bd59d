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

type woundRepository struct {
	BaseRepository
}

func NewWoundRepository(db *sqlx.DB) repository.WoundRepository {
	return &woundRepository{NewBaseRepository(db)}
}

func (r *woundRepository) Create(ctx context.Context, w *model.Wound) error {
	query := `
		INSERT INTO wounds (
			id, tenant_id, patient_id, location, wound_type, stage,
			laterality, onset_date, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.TenantID,
		w.PatientID,
		w.Location,
		w.WoundType,
		w.Stage,
		w.Laterality,
		w.OnsetDate,
		w.Status,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create wound: %w", err)
	}
	return nil
}

func (r *woundRepository) Get(ctx context.Context, id uuid.UUID) (*model.Wound, error) {
	query := `
		SELECT id, tenant_id, patient_id, location, wound_type, stage,
			   laterality, onset_date, status, created_at, updated_at, deleted_at
		FROM wounds
		WHERE id = $1 AND deleted_at IS NULL
	`
	var w model.Wound
	err := r.db.GetContext(ctx, &w, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wound: %w", err)
	}
	return &w, nil
}

func (r *woundRepository) Update(ctx context.Context, w *model.Wound) error {
	query := `
		UPDATE wounds
		SET location = $1, wound_type = $2, stage = $3, laterality = $4,
			onset_date = $5, status = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		w.Location,
		w.WoundType,
		w.Stage,
		w.Laterality,
		w.OnsetDate,
		w.Status,
		w.UpdatedAt,
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wound: %w", err)
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

func (r *woundRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Wound, error) {
	query := `
		SELECT id, tenant_id, patient_id, location, wound_type, stage,
			   laterality, onset_date, status, created_at, updated_at, deleted_at
		FROM wounds
		WHERE patient_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`
	var wounds []*model.Wound
	if err := r.db.SelectContext(ctx, &wounds, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list wounds: %w", err)
	}
	return wounds, nil
}

func (r *woundRepository) CreateAssessment(ctx context.Context, a *model.WoundAssessment) error {
	query := `
		INSERT INTO wound_assessments (
			id, wound_id, visit_id, length_cm, width_cm, depth_cm, surface_area_cm2,
			tissue_type, exudate, odor, pain_level, notes, assessed_by, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.WoundID,
		a.VisitID,
		a.LengthCM,
		a.WidthCM,
		a.DepthCM,
		a.SurfaceAreaCM2,
		a.TissueType,
		a.Exudate,
		a.Odor,
		a.PainLevel,
		a.Notes,
		a.AssessedBy,
		a.AssessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

func (r *woundRepository) ListAssessments(ctx context.Context, woundID uuid.UUID) ([]*model.WoundAssessment, error) {
	query := `
		SELECT id, wound_id, visit_id, length_cm, width_cm, depth_cm, surface_area_cm2,
			   tissue_type, exudate, odor, pain_level, notes, assessed_by, assessed_at
		FROM wound_assessments
		WHERE wound_id = $1
		ORDER BY assessed_at
	`
	var assessments []*model.WoundAssessment
	if err := r.db.SelectContext(ctx, &assessments, query, woundID); err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}
