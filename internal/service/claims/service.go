package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
)

type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	BatchSize int
}

// Service submits approved visits' billing rows to the external claims
// clearinghouse. Run from the worker; each pass picks up approved visits not
// yet claimed.
type Service struct {
	client      *resty.Client
	visitRepo   repository.VisitRepository
	billingRepo repository.BillingRepository
	batchSize   int
}

func NewService(cfg Config, visitRepo repository.VisitRepository, billingRepo repository.BillingRepository) *Service {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second)

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}

	return &Service{
		client:      client,
		visitRepo:   visitRepo,
		billingRepo: billingRepo,
		batchSize:   batch,
	}
}

// SubmitPending sends claims for approved, unclaimed visits and returns how
// many were accepted. Individual failures are logged and retried on the next
// pass.
func (s *Service) SubmitPending(ctx context.Context) (int, error) {
	visits, err := s.visitRepo.ListApprovedUnclaimed(ctx, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list approved visits: %w", err)
	}

	submitted := 0
	for _, v := range visits {
		if err := s.submitOne(ctx, v); err != nil {
			log.Error().Err(err).Str("visit_id", v.ID.String()).Msg("claim submission failed")
			continue
		}
		submitted++
		if err := s.visitRepo.MarkClaimed(ctx, v.ID); err != nil {
			log.Error().Err(err).Str("visit_id", v.ID.String()).Msg("failed to mark visit claimed")
		}
	}
	return submitted, nil
}

func (s *Service) submitOne(ctx context.Context, v *model.Visit) error {
	b, err := s.billingRepo.GetByVisit(ctx, v.ID)
	if errors.Is(err, repository.ErrNotFound) {
		// Approved visit without billing: nothing to claim.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load billing: %w", err)
	}

	claim := model.Claim{
		VisitID:    v.ID,
		PatientID:  v.PatientID,
		VisitDate:  v.VisitDate.Format("2006-01-02"),
		CPTCodes:   b.CPTCodes,
		ICD10Codes: b.ICD10Codes,
		Modifiers:  b.Modifiers,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(claim).
		Post("/claims")
	if err != nil {
		return fmt.Errorf("clearinghouse request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("clearinghouse rejected claim: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
