package signature

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/audit"
	"github.com/woundtrack/ehr-api/internal/service/photo"
)

type Service struct {
	repo    repository.SignatureRepository
	storage photo.ObjectStore
	auditor *audit.Service
}

func NewService(repo repository.SignatureRepository, storage photo.ObjectStore, auditor *audit.Service) *Service {
	return &Service{repo: repo, storage: storage, auditor: auditor}
}

// Capture stores a drawn signature image and records who signed. The image
// lands in object storage; the row keeps a SHA-256 of the raw bytes so later
// tampering is detectable.
func (s *Service) Capture(ctx context.Context, actor *model.TokenClaims, req *model.CaptureSignatureRequest) (*model.Signature, error) {
	raw, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("signature image is not valid base64: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("signature image is empty")
	}

	sum := sha256.Sum256(raw)
	id := uuid.New()
	key := fmt.Sprintf("signatures/%s/%s.png", actor.TenantID, id)

	if err := s.storage.Put(ctx, key, raw, "image/png"); err != nil {
		return nil, fmt.Errorf("failed to store signature image: %w", err)
	}

	sig := &model.Signature{
		ID:         id,
		TenantID:   actor.TenantID,
		Kind:       model.SignatureKind(req.Kind),
		SignerName: req.SignerName,
		ImageKey:   key,
		ImageHash:  hex.EncodeToString(sum[:]),
		SignedAt:   time.Now(),
		CreatedAt:  time.Now(),
	}
	if sig.Kind == model.SignatureKindProvider {
		sig.SignerID = &actor.UserID
	}

	if err := s.repo.Create(ctx, sig); err != nil {
		return nil, fmt.Errorf("failed to save signature: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "capture", "signature", sig.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"kind": sig.Kind, "signer": sig.SignerName},
	})
	return sig, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Signature, error) {
	sig, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature: %w", err)
	}
	return sig, nil
}
