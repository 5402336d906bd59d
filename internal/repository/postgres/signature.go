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

type signatureRepository struct {
	BaseRepository
}

func NewSignatureRepository(db *sqlx.DB) repository.SignatureRepository {
	return &signatureRepository{NewBaseRepository(db)}
}

func (r *signatureRepository) Create(ctx context.Context, sig *model.Signature) error {
	query := `
		INSERT INTO signatures (
			id, tenant_id, kind, signer_id, signer_name,
			image_key, image_hash, signed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		sig.ID,
		sig.TenantID,
		sig.Kind,
		sig.SignerID,
		sig.SignerName,
		sig.ImageKey,
		sig.ImageHash,
		sig.SignedAt,
		sig.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create signature: %w", err)
	}
	return nil
}

func (r *signatureRepository) Get(ctx context.Context, id uuid.UUID) (*model.Signature, error) {
	query := `
		SELECT id, tenant_id, kind, signer_id, signer_name,
			   image_key, image_hash, signed_at, created_at
		FROM signatures
		WHERE id = $1
	`
	var sig model.Signature
	err := r.db.GetContext(ctx, &sig, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signature: %w", err)
	}
	return &sig, nil
}
