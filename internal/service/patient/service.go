package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/audit"
	"github.com/woundtrack/ehr-api/internal/service/event"
)

type Service struct {
	repo    repository.PatientRepository
	auditor *audit.Service
	events  *event.Service
}

func NewService(repo repository.PatientRepository, auditor *audit.Service, events *event.Service) *Service {
	return &Service{repo: repo, auditor: auditor, events: events}
}

func (s *Service) CreatePatient(ctx context.Context, actor *model.TokenClaims, p *model.Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("patient name is required")
	}
	if p.MRN == "" {
		return fmt.Errorf("medical record number is required")
	}

	p.ID = uuid.New()
	p.TenantID = actor.TenantID
	p.Status = model.PatientStatusActive
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}

	if err := s.events.Emit(ctx, model.EventPatientCreated, p); err != nil {
		s.auditor.Log(ctx, actor.UserID, actor.TenantID, "event_failed", "patient", p.ID, &audit.LogOptions{
			Metadata: map[string]interface{}{"error": err.Error()},
		})
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "create", "patient", p.ID, &audit.LogOptions{Changes: p})
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Status != nil {
		p.Status = model.PatientStatus(*req.Status)
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "update", "patient", p.ID, &audit.LogOptions{Changes: req})
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
