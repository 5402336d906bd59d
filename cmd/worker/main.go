package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/woundtrack/ehr-api/internal/config"
	"github.com/woundtrack/ehr-api/internal/repository/postgres"
	claimsService "github.com/woundtrack/ehr-api/internal/service/claims"
	"github.com/woundtrack/ehr-api/pkg/logger"
	"github.com/woundtrack/ehr-api/pkg/messaging/redis"
	"github.com/woundtrack/ehr-api/pkg/metrics"
	"github.com/woundtrack/ehr-api/pkg/worker"
)

// workerEnv carries deployment-level overrides that don't belong in the
// shared config file.
type workerEnv struct {
	HealthAddr string `envconfig:"WORKER_HEALTH_ADDR" default:":8081"`
}

func setupHealthCheck(addr string, lg *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			lg.Fatal(err, "Health check server failed")
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var env workerEnv
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to process environment")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	visitRepo := postgres.NewVisitRepository(db)
	billingRepo := postgres.NewBillingRepository(db)

	m := metrics.NewMetrics("ehr", "worker")

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		},
		lg.Component("outbox"),
		m,
	)

	claimsSvc := claimsService.NewService(claimsService.Config{
		BaseURL:   cfg.Claims.BaseURL,
		APIKey:    cfg.Claims.APIKey,
		Timeout:   cfg.Claims.Timeout,
		BatchSize: cfg.Claims.BatchSize,
	}, visitRepo, billingRepo)

	submitter := worker.NewClaimsSubmitter(claimsSvc, worker.ClaimsSubmitterConfig{
		PollInterval: cfg.Claims.SubmitInterval,
	}, lg.Component("claims"), m)

	setupHealthCheck(env.HealthAddr, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		lg.Info("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		submitter.Start(ctx)
	}()
	wg.Wait()
}
