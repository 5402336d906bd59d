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

const visitColumns = `
	id, tenant_id, facility_id, patient_id, clinician_id, clinician_credential,
	visit_date, visit_type, status, schedule_status, requires_patient_signature,
	provider_signature_id, patient_signature_id, number_of_addenda, notes,
	created_at, updated_at, deleted_at
`

type visitRepository struct {
	BaseRepository
}

func NewVisitRepository(db *sqlx.DB) repository.VisitRepository {
	return &visitRepository{NewBaseRepository(db)}
}

func (r *visitRepository) Create(ctx context.Context, v *model.Visit) error {
	query := `
		INSERT INTO visits (
			id, tenant_id, facility_id, patient_id, clinician_id, clinician_credential,
			visit_date, visit_type, status, schedule_status, requires_patient_signature,
			number_of_addenda, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.TenantID,
		v.FacilityID,
		v.PatientID,
		v.ClinicianID,
		v.ClinicianCredential,
		v.VisitDate,
		v.VisitType,
		v.Status,
		v.ScheduleStatus,
		v.RequiresPatientSignature,
		v.NumberOfAddenda,
		v.Notes,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

func (r *visitRepository) Get(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1 AND deleted_at IS NULL`

	var v model.Visit
	err := r.db.GetContext(ctx, &v, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return &v, nil
}

func (r *visitRepository) Update(ctx context.Context, v *model.Visit) error {
	query := `
		UPDATE visits
		SET visit_date = $1, visit_type = $2, schedule_status = $3, notes = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		v.VisitDate,
		v.VisitType,
		v.ScheduleStatus,
		v.Notes,
		v.UpdatedAt,
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
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

// Delete physically removes a visit. The service layer only permits this
// while the visit is still in draft.
func (r *visitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
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

func (r *visitRepository) List(ctx context.Context, filters *model.VisitFilters) ([]*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE tenant_id = $1 AND deleted_at IS NULL`
	args := []interface{}{filters.TenantID}

	if filters.PatientID != uuid.Nil {
		args = append(args, filters.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filters.ClinicianID != uuid.Nil {
		args = append(args, filters.ClinicianID)
		query += fmt.Sprintf(" AND clinician_id = $%d", len(args))
	}
	if filters.FacilityID != uuid.Nil {
		args = append(args, filters.FacilityID)
		query += fmt.Sprintf(" AND facility_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filters.StartDate.IsZero() {
		args = append(args, filters.StartDate)
		query += fmt.Sprintf(" AND visit_date >= $%d", len(args))
	}
	if !filters.EndDate.IsZero() {
		args = append(args, filters.EndDate)
		query += fmt.Sprintf(" AND visit_date <= $%d", len(args))
	}
	query += " ORDER BY visit_date DESC"

	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

// TransitionStatusTx is the compare-and-swap write behind every lifecycle
// transition. The WHERE clause pins the expected current status; zero
// affected rows means a concurrent actor won the race.
func (r *visitRepository) TransitionStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.VisitStatus) error {
	query := `
		UPDATE visits
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
	`
	result, err := tx.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("failed to transition visit status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

func (r *visitRepository) AttachSignatureTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, kind model.SignatureKind, signatureID uuid.UUID) error {
	column := "provider_signature_id"
	if kind == model.SignatureKindPatient {
		column = "patient_signature_id"
	}
	query := fmt.Sprintf(`UPDATE visits SET %s = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`, column)

	result, err := tx.ExecContext(ctx, query, signatureID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to attach signature: %w", err)
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

func (r *visitRepository) AppendNoteTx(ctx context.Context, tx *sqlx.Tx, note *model.VisitNote) error {
	query := `
		INSERT INTO visit_notes (id, visit_id, type, author_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		note.ID,
		note.VisitID,
		note.Type,
		note.AuthorID,
		note.Note,
		note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append visit note: %w", err)
	}
	return nil
}

func (r *visitRepository) IncrementAddendaTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	query := `UPDATE visits SET number_of_addenda = number_of_addenda + 1, updated_at = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to increment addenda count: %w", err)
	}
	return nil
}

func (r *visitRepository) ListNotes(ctx context.Context, visitID uuid.UUID) ([]*model.VisitNote, error) {
	query := `
		SELECT id, visit_id, type, author_id, note, created_at
		FROM visit_notes
		WHERE visit_id = $1
		ORDER BY created_at
	`
	var notes []*model.VisitNote
	if err := r.db.SelectContext(ctx, &notes, query, visitID); err != nil {
		return nil, fmt.Errorf("failed to list visit notes: %w", err)
	}
	return notes, nil
}

func (r *visitRepository) ListPendingReview(ctx context.Context, tenantID uuid.UUID) ([]*model.Visit, error) {
	query := `SELECT ` + visitColumns + `
		FROM visits
		WHERE tenant_id = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY updated_at
	`
	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, tenantID, model.VisitStatusSubmitted); err != nil {
		return nil, fmt.Errorf("failed to list pending reviews: %w", err)
	}
	return visits, nil
}

func (r *visitRepository) ListApprovedUnclaimed(ctx context.Context, limit int) ([]*model.Visit, error) {
	query := `SELECT ` + visitColumns + `
		FROM visits
		WHERE status = $1 AND claimed_at IS NULL AND deleted_at IS NULL
		ORDER BY updated_at
		LIMIT $2
	`
	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, model.VisitStatusApproved, limit); err != nil {
		return nil, fmt.Errorf("failed to list approved visits: %w", err)
	}
	return visits, nil
}

func (r *visitRepository) MarkClaimed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE visits SET claimed_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark visit claimed: %w", err)
	}
	return nil
}
