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

const patientColumns = `
	id, tenant_id, facility_id, first_name, last_name, date_of_birth,
	gender, mrn, phone, email, address, status, created_at, updated_at, deleted_at
`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db)}
}

func (r *patientRepository) Create(ctx context.Context, p *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, tenant_id, facility_id, first_name, last_name, date_of_birth,
			gender, mrn, phone, email, address, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.TenantID,
		p.FacilityID,
		p.FirstName,
		p.LastName,
		p.DateOfBirth,
		p.Gender,
		p.MRN,
		p.Phone,
		p.Email,
		p.Address,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND deleted_at IS NULL`

	var p model.Patient
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &p, nil
}

func (r *patientRepository) Update(ctx context.Context, p *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, gender = $3, phone = $4,
			email = $5, address = $6, status = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		p.FirstName,
		p.LastName,
		p.Gender,
		p.Phone,
		p.Email,
		p.Address,
		p.Status,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
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

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE tenant_id = $1 AND deleted_at IS NULL`
	args := []interface{}{filters.TenantID}

	if filters.FacilityID != uuid.Nil {
		args = append(args, filters.FacilityID)
		query += fmt.Sprintf(" AND facility_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR mrn ILIKE $%d)", len(args), len(args), len(args))
	}
	query += " ORDER BY last_name, first_name"

	if filters.PageSize > 0 {
		args = append(args, filters.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if filters.Page > 1 {
			args = append(args, (filters.Page-1)*filters.PageSize)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
