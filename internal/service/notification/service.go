package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
)

// Notifier sends clinician-facing messages for review actions. Failures are
// logged, never propagated: a dead SMTP relay must not block a review action
// that already committed.
type Notifier interface {
	NotifyCorrectionRequested(ctx context.Context, v *model.Visit, note string)
	NotifyVoided(ctx context.Context, v *model.Visit, note string)
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Service struct {
	dialer   *gomail.Dialer
	from     string
	userRepo repository.UserRepository
}

func NewService(cfg SMTPConfig, userRepo repository.UserRepository) *Service {
	return &Service{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		userRepo: userRepo,
	}
}

func (s *Service) NotifyCorrectionRequested(ctx context.Context, v *model.Visit, note string) {
	subject := "Correction requested on a visit note"
	body := fmt.Sprintf(
		"A reviewer requested a correction on your visit dated %s.\n\nReviewer note:\n%s\n\nThe visit is editable again; please correct and resubmit.",
		v.VisitDate.Format("2006-01-02"), note,
	)
	s.sendToClinician(ctx, v, subject, body)
}

func (s *Service) NotifyVoided(ctx context.Context, v *model.Visit, note string) {
	subject := "A visit note was voided"
	body := fmt.Sprintf(
		"Your visit dated %s was voided by a reviewer.\n\nReason:\n%s",
		v.VisitDate.Format("2006-01-02"), note,
	)
	s.sendToClinician(ctx, v, subject, body)
}

func (s *Service) sendToClinician(ctx context.Context, v *model.Visit, subject, body string) {
	clinician, err := s.userRepo.Get(ctx, v.ClinicianID)
	if err != nil {
		log.Error().Err(err).Str("visit_id", v.ID.String()).Msg("failed to resolve clinician for notification")
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", clinician.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Error().Err(err).Str("to", clinician.Email).Msg("failed to send notification email")
	}
}

// NoopNotifier satisfies Notifier without sending anything. Used in tests and
// when SMTP is not configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyCorrectionRequested(context.Context, *model.Visit, string) {}
func (NoopNotifier) NotifyVoided(context.Context, *model.Visit, string)              {}
