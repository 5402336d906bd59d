package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/woundtrack/ehr-api/internal/service/claims"
	"github.com/woundtrack/ehr-api/pkg/logger"
	"github.com/woundtrack/ehr-api/pkg/metrics"
)

type ClaimsSubmitterConfig struct {
	PollInterval time.Duration
}

// ClaimsSubmitter periodically pushes approved, unclaimed visits to the
// clearinghouse.
type ClaimsSubmitter struct {
	svc     *claims.Service
	config  ClaimsSubmitterConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewClaimsSubmitter(svc *claims.Service, config ClaimsSubmitterConfig, logger *logger.Logger, metrics *metrics.Metrics) *ClaimsSubmitter {
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	return &ClaimsSubmitter{
		svc:     svc,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *ClaimsSubmitter) Start(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.logger.Info("Starting claims submitter")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down claims submitter")
			return
		case <-ticker.C:
			timer := prometheus.NewTimer(s.metrics.ClaimSubmissionLatency)
			n, err := s.svc.SubmitPending(ctx)
			if err != nil {
				s.metrics.ClaimsFailed.Inc()
				s.logger.Error(err, "Claim submission pass failed")
			}
			s.metrics.ClaimsSubmitted.Add(float64(n))
			timer.ObserveDuration()
		}
	}
}
