package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/wound"
)

type Service struct {
	visitRepo  repository.VisitRepository
	woundRepo  repository.WoundRepository
	reportRepo repository.ReportRepository
}

func NewService(visitRepo repository.VisitRepository, woundRepo repository.WoundRepository, reportRepo repository.ReportRepository) *Service {
	return &Service{visitRepo: visitRepo, woundRepo: woundRepo, reportRepo: reportRepo}
}

// PendingReview lists submitted visits awaiting an office reviewer. Voided
// visits never appear here.
func (s *Service) PendingReview(ctx context.Context, tenantID uuid.UUID) ([]*model.Visit, error) {
	visits, err := s.visitRepo.ListPendingReview(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reviews: %w", err)
	}
	return visits, nil
}

// VisitVolume returns counts by lifecycle status for the period.
func (s *Service) VisitVolume(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (map[string]int, error) {
	volume, err := s.reportRepo.VisitVolume(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute visit volume: %w", err)
	}
	return volume, nil
}

// PatientHealingReport computes the healing trend for every wound of one
// patient.
func (s *Service) PatientHealingReport(ctx context.Context, patientID uuid.UUID) ([]*model.HealingTrend, error) {
	wounds, err := s.woundRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wounds: %w", err)
	}

	trends := make([]*model.HealingTrend, 0, len(wounds))
	for _, w := range wounds {
		assessments, err := s.woundRepo.ListAssessments(ctx, w.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list assessments for wound %s: %w", w.ID, err)
		}
		if t := wound.ComputeTrend(w.ID, assessments); t != nil {
			trends = append(trends, t)
		}
	}
	return trends, nil
}
