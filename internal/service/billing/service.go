package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/audit"
	"github.com/woundtrack/ehr-api/internal/service/procedurescope"
)

type Service struct {
	repo      repository.BillingRepository
	visitRepo repository.VisitRepository
	scopeSvc  *procedurescope.Service
	auditor   *audit.Service
}

func NewService(repo repository.BillingRepository, visitRepo repository.VisitRepository, scopeSvc *procedurescope.Service, auditor *audit.Service) *Service {
	return &Service{
		repo:      repo,
		visitRepo: visitRepo,
		scopeSvc:  scopeSvc,
		auditor:   auditor,
	}
}

// SaveForVisit attaches or replaces the billing codes on a visit. Only legal
// while the visit is still editable. The authorizer runs here too, but a
// draft may be saved with invalid codes; CheckCodes results ride back so the
// UI can warn. The hard gate is the sign transition.
func (s *Service) SaveForVisit(ctx context.Context, actor *model.TokenClaims, visitID uuid.UUID, req *model.UpsertBillingRequest) (*model.Billing, []model.CodeCheck, error) {
	v, err := s.visitRepo.Get(ctx, visitID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get visit: %w", err)
	}
	if !v.Status.Editable() {
		return nil, nil, fmt.Errorf("Cannot edit visit that has been signed or submitted")
	}

	credential := v.ClinicianCredential
	checks, err := s.scopeSvc.CheckCodes(ctx, v.TenantID, &credential, req.CPTCodes)
	if err != nil {
		return nil, nil, err
	}

	b, err := s.repo.GetByVisit(ctx, visitID)
	if errors.Is(err, repository.ErrNotFound) {
		b = &model.Billing{
			Base:     model.Base{ID: uuid.New(), CreatedAt: time.Now()},
			VisitID:  visitID,
			TenantID: v.TenantID,
		}
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to load billing: %w", err)
	}

	b.CPTCodes = req.CPTCodes
	b.ICD10Codes = req.ICD10Codes
	b.Modifiers = req.Modifiers
	b.ValidatedBy = nil
	b.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, b); err != nil {
		return nil, nil, fmt.Errorf("failed to save billing: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "save_billing", "visit", visitID, &audit.LogOptions{Changes: b})
	return b, checks, nil
}

func (s *Service) GetForVisit(ctx context.Context, visitID uuid.UUID) (*model.Billing, error) {
	b, err := s.repo.GetByVisit(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing: %w", err)
	}
	return b, nil
}

// ValidateForVisit reruns the credential check against the current rule
// table, without writing anything.
func (s *Service) ValidateForVisit(ctx context.Context, visitID uuid.UUID) (model.CodeValidation, error) {
	v, err := s.visitRepo.Get(ctx, visitID)
	if err != nil {
		return model.CodeValidation{}, fmt.Errorf("failed to get visit: %w", err)
	}
	b, err := s.repo.GetByVisit(ctx, visitID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.CodeValidation{Valid: true, Errors: []string{}}, nil
	}
	if err != nil {
		return model.CodeValidation{}, fmt.Errorf("failed to get billing: %w", err)
	}

	credential := v.ClinicianCredential
	return s.scopeSvc.Validate(ctx, v.TenantID, &credential, b.CPTCodes)
}
