package wound

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
	repo    repository.WoundRepository
	auditor *audit.Service
	events  *event.Service
}

func NewService(repo repository.WoundRepository, auditor *audit.Service, events *event.Service) *Service {
	return &Service{repo: repo, auditor: auditor, events: events}
}

func (s *Service) CreateWound(ctx context.Context, actor *model.TokenClaims, w *model.Wound) error {
	if w.PatientID == uuid.Nil {
		return fmt.Errorf("patient ID is required")
	}
	if w.Location == "" {
		return fmt.Errorf("wound location is required")
	}

	w.ID = uuid.New()
	w.TenantID = actor.TenantID
	w.Status = model.WoundStatusActive
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()

	if err := s.repo.Create(ctx, w); err != nil {
		return fmt.Errorf("failed to create wound: %w", err)
	}

	if err := s.events.Emit(ctx, model.EventWoundCreated, w); err != nil {
		s.auditor.Log(ctx, actor.UserID, actor.TenantID, "event_failed", "wound", w.ID, &audit.LogOptions{
			Metadata: map[string]interface{}{"error": err.Error()},
		})
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "create", "wound", w.ID, &audit.LogOptions{Changes: w})
	return nil
}

func (s *Service) GetWound(ctx context.Context, id uuid.UUID) (*model.Wound, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get wound: %w", err)
	}
	return w, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Wound, error) {
	wounds, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wounds: %w", err)
	}
	return wounds, nil
}

// RecordAssessment stores one measurement. Surface area is computed here,
// once, and stored with the row.
func (s *Service) RecordAssessment(ctx context.Context, actor *model.TokenClaims, woundID uuid.UUID, a *model.WoundAssessment) error {
	if _, err := s.repo.Get(ctx, woundID); err != nil {
		return fmt.Errorf("failed to get wound: %w", err)
	}
	if a.LengthCM < 0 || a.WidthCM < 0 || a.DepthCM < 0 {
		return fmt.Errorf("measurements must not be negative")
	}

	a.ID = uuid.New()
	a.WoundID = woundID
	a.SurfaceAreaCM2 = SurfaceArea(a.LengthCM, a.WidthCM)
	a.AssessedBy = actor.UserID
	a.AssessedAt = time.Now()

	if err := s.repo.CreateAssessment(ctx, a); err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "assess", "wound", woundID, &audit.LogOptions{Changes: a})
	return nil
}

func (s *Service) ListAssessments(ctx context.Context, woundID uuid.UUID) ([]*model.WoundAssessment, error) {
	assessments, err := s.repo.ListAssessments(ctx, woundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}

// Trend computes the healing trend of a wound from its assessment history,
// ordered oldest first. Returns nil when fewer than two assessments exist.
func (s *Service) Trend(ctx context.Context, woundID uuid.UUID) (*model.HealingTrend, error) {
	assessments, err := s.repo.ListAssessments(ctx, woundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return ComputeTrend(woundID, assessments), nil
}

// SurfaceArea is length times width, the planimetric estimate charted on
// every assessment.
func SurfaceArea(lengthCM, widthCM float64) float64 {
	return lengthCM * widthCM
}

// ComputeTrend compares the latest assessment against the first. A negative
// percent change means the wound is shrinking. Nil when there is nothing to
// compare.
func ComputeTrend(woundID uuid.UUID, assessments []*model.WoundAssessment) *model.HealingTrend {
	if len(assessments) < 2 {
		return nil
	}

	first := assessments[0]
	latest := assessments[len(assessments)-1]

	trend := &model.HealingTrend{
		WoundID:          woundID,
		BaselineAreaCM2:  first.SurfaceAreaCM2,
		CurrentAreaCM2:   latest.SurfaceAreaCM2,
		AssessmentCount:  len(assessments),
		FirstAssessedAt:  first.AssessedAt,
		LatestAssessedAt: latest.AssessedAt,
	}
	if first.SurfaceAreaCM2 > 0 {
		trend.PercentChange = (latest.SurfaceAreaCM2 - first.SurfaceAreaCM2) / first.SurfaceAreaCM2 * 100
	}
	return trend
}
