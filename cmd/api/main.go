package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/woundtrack/ehr-api/internal/config"
	"github.com/woundtrack/ehr-api/internal/handler"
	authHandler "github.com/woundtrack/ehr-api/internal/handler/auth"
	billingHandler "github.com/woundtrack/ehr-api/internal/handler/billing"
	patientHandler "github.com/woundtrack/ehr-api/internal/handler/patient"
	photoHandler "github.com/woundtrack/ehr-api/internal/handler/photo"
	scopeHandler "github.com/woundtrack/ehr-api/internal/handler/procedurescope"
	reportHandler "github.com/woundtrack/ehr-api/internal/handler/report"
	signatureHandler "github.com/woundtrack/ehr-api/internal/handler/signature"
	visitHandler "github.com/woundtrack/ehr-api/internal/handler/visit"
	woundHandler "github.com/woundtrack/ehr-api/internal/handler/wound"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/repository/postgres"
	"github.com/woundtrack/ehr-api/internal/router"
	auditService "github.com/woundtrack/ehr-api/internal/service/audit"
	authService "github.com/woundtrack/ehr-api/internal/service/auth"
	billingService "github.com/woundtrack/ehr-api/internal/service/billing"
	eventService "github.com/woundtrack/ehr-api/internal/service/event"
	"github.com/woundtrack/ehr-api/internal/service/notification"
	patientService "github.com/woundtrack/ehr-api/internal/service/patient"
	photoService "github.com/woundtrack/ehr-api/internal/service/photo"
	scopeService "github.com/woundtrack/ehr-api/internal/service/procedurescope"
	reportService "github.com/woundtrack/ehr-api/internal/service/report"
	signatureService "github.com/woundtrack/ehr-api/internal/service/signature"
	visitService "github.com/woundtrack/ehr-api/internal/service/visit"
	woundService "github.com/woundtrack/ehr-api/internal/service/wound"
	"github.com/woundtrack/ehr-api/pkg/auth"
	"github.com/woundtrack/ehr-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Object storage for wound photos and signature images
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS configuration")
	}
	store := photoService.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3.Bucket)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	woundRepo := postgres.NewWoundRepository(db)
	photoRepo := postgres.NewPhotoRepository(db)
	visitRepo := postgres.NewVisitRepository(db)
	billingRepo := postgres.NewBillingRepository(db)
	signatureRepo := postgres.NewSignatureRepository(db)
	scopeRepo := postgres.NewProcedureScopeRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	reportRepo := postgres.NewReportRepository(db)

	m := metrics.NewMetrics("ehr", "api")

	// Services
	auditSvc := auditService.NewService(auditRepo)
	eventSvc := eventService.NewService(outboxRepo)
	jwtCfg := auth.JWTConfig{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	}
	authSvc := authService.NewService(userRepo, auth.NewJWTService(jwtCfg), auditSvc, jwtCfg)
	notifier := notification.NewService(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, userRepo)
	scopeSvc := scopeService.NewService(scopeRepo, auditSvc)
	patientSvc := patientService.NewService(patientRepo, auditSvc, eventSvc)
	woundSvc := woundService.NewService(woundRepo, auditSvc, eventSvc)
	photoSvc := photoService.NewService(photoRepo, woundRepo, store, auditSvc)
	signatureSvc := signatureService.NewService(signatureRepo, store, auditSvc)
	billingSvc := billingService.NewService(billingRepo, visitRepo, scopeSvc, auditSvc)
	visitSvc := visitService.NewService(visitRepo, billingRepo, signatureRepo, scopeSvc, auditSvc, eventSvc, notifier, m)
	reportSvc := reportService.NewService(visitRepo, woundRepo, reportRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	h := handler.NewHandler()

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		patientHandler.NewHandler(patientSvc),
		woundHandler.NewHandler(woundSvc),
		visitHandler.NewHandler(visitSvc),
		billingHandler.NewHandler(billingSvc),
		scopeHandler.NewHandler(scopeSvc),
		signatureHandler.NewHandler(signatureSvc),
		photoHandler.NewHandler(photoSvc),
		reportHandler.NewHandler(reportSvc),
		h,
		router.RouterConfig{
			RateLimit:     100,
			RateBurst:     200,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "ehr_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
