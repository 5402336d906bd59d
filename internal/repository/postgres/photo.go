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

type photoRepository struct {
	BaseRepository
}

func NewPhotoRepository(db *sqlx.DB) repository.PhotoRepository {
	return &photoRepository{NewBaseRepository(db)}
}

func (r *photoRepository) Create(ctx context.Context, p *model.WoundPhoto) error {
	query := `
		INSERT INTO wound_photos (
			id, wound_id, visit_id, object_key, content_type,
			size_bytes, captured_by, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.WoundID,
		p.VisitID,
		p.ObjectKey,
		p.ContentType,
		p.SizeBytes,
		p.CapturedBy,
		p.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo record: %w", err)
	}
	return nil
}

func (r *photoRepository) Get(ctx context.Context, id uuid.UUID) (*model.WoundPhoto, error) {
	query := `
		SELECT id, wound_id, visit_id, object_key, content_type,
			   size_bytes, captured_by, captured_at
		FROM wound_photos
		WHERE id = $1
	`
	var p model.WoundPhoto
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo record: %w", err)
	}
	return &p, nil
}

func (r *photoRepository) ListByWound(ctx context.Context, woundID uuid.UUID) ([]*model.WoundPhoto, error) {
	query := `
		SELECT id, wound_id, visit_id, object_key, content_type,
			   size_bytes, captured_by, captured_at
		FROM wound_photos
		WHERE wound_id = $1
		ORDER BY captured_at DESC
	`
	var photos []*model.WoundPhoto
	if err := r.db.SelectContext(ctx, &photos, query, woundID); err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}
