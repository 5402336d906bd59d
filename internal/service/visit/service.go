package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/audit"
	"github.com/woundtrack/ehr-api/internal/service/event"
	"github.com/woundtrack/ehr-api/internal/service/notification"
	"github.com/woundtrack/ehr-api/internal/service/procedurescope"
	"github.com/woundtrack/ehr-api/pkg/metrics"
)

// RejectionError is a refused business-rule decision carried as an error
// value. Handlers surface the reason to the user verbatim; anything else that
// comes out of this service is an unexpected failure.
type RejectionError struct {
	Kind   RejectionKind
	Reason string
}

func (e *RejectionError) Error() string { return e.Reason }

// AsRejection unwraps err into a RejectionError if it is one.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

type Service struct {
	repo     repository.VisitRepository
	billing  repository.BillingRepository
	sigRepo  repository.SignatureRepository
	scopeSvc *procedurescope.Service
	auditor  *audit.Service
	events   *event.Service
	notifier notification.Notifier
	metrics  *metrics.Metrics
}

func NewService(
	repo repository.VisitRepository,
	billing repository.BillingRepository,
	sigRepo repository.SignatureRepository,
	scopeSvc *procedurescope.Service,
	auditor *audit.Service,
	events *event.Service,
	notifier notification.Notifier,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		billing:  billing,
		sigRepo:  sigRepo,
		scopeSvc: scopeSvc,
		auditor:  auditor,
		events:   events,
		notifier: notifier,
		metrics:  m,
	}
}

// rejected records the refusal and wraps the decision as an error.
func (s *Service) rejected(d Decision) error {
	s.recordRejection(d.Kind)
	return &RejectionError{Kind: d.Kind, Reason: d.Reason}
}

func (s *Service) rejectf(kind RejectionKind, reason string) error {
	s.recordRejection(kind)
	return &RejectionError{Kind: kind, Reason: reason}
}

func (s *Service) recordTransition(action Action) {
	if s.metrics == nil {
		return
	}
	s.metrics.VisitTransitions.WithLabelValues(string(action)).Inc()
}

func (s *Service) recordRejection(kind RejectionKind) {
	if s.metrics == nil {
		return
	}
	s.metrics.VisitRejections.WithLabelValues(string(kind)).Inc()
}

// CreateVisit starts documentation in draft. Whether a patient
// countersignature will be required is fixed here, from the documenting
// clinician's credential, and never recomputed.
func (s *Service) CreateVisit(ctx context.Context, actor *model.TokenClaims, v *model.Visit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient ID is required")
	}
	if v.VisitDate.IsZero() {
		return fmt.Errorf("visit date is required")
	}

	v.ID = uuid.New()
	v.TenantID = actor.TenantID
	v.ClinicianID = actor.UserID
	v.ClinicianCredential = actor.Credential
	v.Status = model.VisitStatusDraft
	v.RequiresPatientSignature = actor.Credential.RequiresPatientSignature()
	v.CreatedAt = time.Now()
	v.UpdatedAt = time.Now()

	if err := s.repo.Create(ctx, v); err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "create", "visit", v.ID, &audit.LogOptions{Changes: v})
	return nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return v, nil
}

func (s *Service) ListVisits(ctx context.Context, filters *model.VisitFilters) ([]*model.Visit, error) {
	visits, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

func (s *Service) ListNotes(ctx context.Context, visitID uuid.UUID) ([]*model.VisitNote, error) {
	notes, err := s.repo.ListNotes(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visit notes: %w", err)
	}
	return notes, nil
}

// UpdateVisit applies ordinary field edits. Refused once the visit is signed
// or submitted.
func (s *Service) UpdateVisit(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.UpdateVisitRequest) (*model.Visit, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	decision := Evaluate(s.input(v, actor, ActionEdit, nil))
	if !decision.Allowed {
		return nil, s.rejected(decision)
	}

	if req.VisitDate != nil {
		v.VisitDate = *req.VisitDate
	}
	if req.VisitType != nil {
		v.VisitType = model.VisitType(*req.VisitType)
	}
	if req.Notes != nil {
		v.Notes = *req.Notes
	}
	v.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update visit: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "update", "visit", v.ID, &audit.LogOptions{Changes: req})
	return v, nil
}

// DeleteVisit removes a draft visit and its billing row. Visits that have
// left draft are never physically deleted, only voided.
func (s *Service) DeleteVisit(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get visit: %w", err)
	}

	decision := Evaluate(s.input(v, actor, ActionDelete, nil))
	if !decision.Allowed {
		return s.rejected(decision)
	}

	if err := s.billing.DeleteByVisit(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete visit billing: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "delete", "visit", id, nil)
	return nil
}

// AttachSignature links a captured signature to the visit. A patient
// signature may only be attached when the visit requires one.
func (s *Service) AttachSignature(ctx context.Context, actor *model.TokenClaims, visitID uuid.UUID, kind model.SignatureKind, signatureID uuid.UUID) error {
	v, err := s.repo.Get(ctx, visitID)
	if err != nil {
		return fmt.Errorf("failed to get visit: %w", err)
	}
	if v.Status.IsTerminal() {
		return s.rejectf(RejectIllegalTransition, "visit has been voided and can no longer be modified")
	}
	if v.Status.Finalized() {
		return s.rejectf(RejectIllegalTransition, "Cannot edit visit that has been signed or submitted")
	}
	if kind == model.SignatureKindPatient && !v.RequiresPatientSignature {
		return s.rejectf(RejectIllegalTransition, "this visit does not take a patient signature")
	}
	if _, err := s.sigRepo.Get(ctx, signatureID); err != nil {
		return fmt.Errorf("failed to resolve signature: %w", err)
	}

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.repo.AttachSignatureTx(ctx, tx, visitID, kind, signatureID)
	})
	if err != nil {
		return fmt.Errorf("failed to attach signature: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "attach_signature", "visit", visitID, &audit.LogOptions{
		Metadata: map[string]interface{}{"kind": kind, "signature_id": signatureID},
	})
	return nil
}

// MarkReady moves a draft to ready_for_signature.
func (s *Service) MarkReady(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) error {
	return s.transition(ctx, actor, id, ActionMarkReady, "", nil)
}

// Sign finalizes the documentation. Requires the provider signature, the
// patient countersignature when the credential demands one, and that any
// attached CPT codes pass credential validation now, at sign time.
func (s *Service) Sign(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get visit: %w", err)
	}

	validation, err := s.billingValidation(ctx, v)
	if err != nil {
		return err
	}

	decision := Evaluate(s.input(v, actor, ActionSign, validation))
	if !decision.Allowed {
		return s.rejected(decision)
	}

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.TransitionStatusTx(ctx, tx, v.ID, v.Status, decision.Next); err != nil {
			return err
		}
		if validation != nil {
			if err := s.billing.MarkValidatedTx(ctx, tx, v.ID, actor.UserID); err != nil {
				return err
			}
		}
		return s.events.EmitTx(ctx, tx, model.EventVisitSigned, v)
	})
	if err != nil {
		return s.transitionErr(err)
	}

	s.recordTransition(ActionSign)
	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "sign", "visit", v.ID, nil)
	return nil
}

// Submit sends a signed visit to office review.
func (s *Service) Submit(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) error {
	return s.transition(ctx, actor, id, ActionSubmit, "", nil)
}

// Approve locks a submitted visit. Reviewer only.
func (s *Service) Approve(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) error {
	return s.transition(ctx, actor, id, ActionApprove, "", nil)
}

// RequestCorrection returns a submitted visit to the clinician with a note.
func (s *Service) RequestCorrection(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, note string) error {
	if note == "" {
		return fmt.Errorf("a correction note is required")
	}
	return s.transition(ctx, actor, id, ActionRequestCorrection, note, func(ctx context.Context, v *model.Visit) {
		s.notifier.NotifyCorrectionRequested(ctx, v, note)
	})
}

// Void terminates the visit, preserving its identity for audit.
func (s *Service) Void(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, note string) error {
	if note == "" {
		return fmt.Errorf("a void reason is required")
	}
	return s.transition(ctx, actor, id, ActionVoid, note, func(ctx context.Context, v *model.Visit) {
		s.notifier.NotifyVoided(ctx, v, note)
	})
}

// AddAddendum appends a note to a finalized visit and bumps the addendum
// counter. The counter only ever increases.
func (s *Service) AddAddendum(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, note string) error {
	if note == "" {
		return fmt.Errorf("addendum text is required")
	}

	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get visit: %w", err)
	}

	decision := Evaluate(s.input(v, actor, ActionAddendum, nil))
	if !decision.Allowed {
		return s.rejected(decision)
	}

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.AppendNoteTx(ctx, tx, &model.VisitNote{
			ID:        uuid.New(),
			VisitID:   v.ID,
			Type:      model.VisitNoteAddendum,
			AuthorID:  actor.UserID,
			Note:      note,
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return s.repo.IncrementAddendaTx(ctx, tx, v.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to add addendum: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "addendum", "visit", v.ID, nil)
	return nil
}

// transition runs the common evaluate-then-apply path for status changes,
// appending a note for review actions that carry one.
func (s *Service) transition(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, action Action, note string, after func(context.Context, *model.Visit)) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get visit: %w", err)
	}

	decision := Evaluate(s.input(v, actor, action, nil))
	if !decision.Allowed {
		return s.rejected(decision)
	}

	noteType, eventType := actionArtifacts(action)

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.TransitionStatusTx(ctx, tx, v.ID, v.Status, decision.Next); err != nil {
			return err
		}
		if noteType != "" && note != "" {
			if err := s.repo.AppendNoteTx(ctx, tx, &model.VisitNote{
				ID:        uuid.New(),
				VisitID:   v.ID,
				Type:      noteType,
				AuthorID:  actor.UserID,
				Note:      note,
				CreatedAt: time.Now(),
			}); err != nil {
				return err
			}
		}
		if eventType != "" {
			return s.events.EmitTx(ctx, tx, eventType, v)
		}
		return nil
	})
	if err != nil {
		return s.transitionErr(err)
	}

	s.recordTransition(action)
	s.auditor.Log(ctx, actor.UserID, actor.TenantID, string(action), "visit", v.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"from": v.Status, "to": decision.Next},
	})

	if after != nil {
		after(ctx, v)
	}
	return nil
}

func actionArtifacts(action Action) (model.VisitNoteType, string) {
	switch action {
	case ActionSubmit:
		return "", model.EventVisitSubmitted
	case ActionApprove:
		return "", model.EventVisitApproved
	case ActionRequestCorrection:
		return model.VisitNoteCorrection, model.EventVisitCorrectionRequested
	case ActionVoid:
		return model.VisitNoteVoid, model.EventVisitVoided
	}
	return "", ""
}

// billingValidation runs the authorizer against the visit's attached CPT
// codes, using the documenting clinician's credential. Nil when no billing
// row is attached.
func (s *Service) billingValidation(ctx context.Context, v *model.Visit) (*model.CodeValidation, error) {
	b, err := s.billing.GetByVisit(ctx, v.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load visit billing: %w", err)
	}

	credential := v.ClinicianCredential
	validation, err := s.scopeSvc.Validate(ctx, v.TenantID, &credential, b.CPTCodes)
	if err != nil {
		return nil, err
	}
	return &validation, nil
}

func (s *Service) input(v *model.Visit, actor *model.TokenClaims, action Action, validation *model.CodeValidation) TransitionInput {
	return TransitionInput{
		Status:                   v.Status,
		Action:                   action,
		ActorRole:                actor.Role,
		ActorIsOwner:             v.ClinicianID == actor.UserID,
		RequiresPatientSignature: v.RequiresPatientSignature,
		HasProviderSignature:     v.ProviderSignatureID != nil,
		HasPatientSignature:      v.PatientSignatureID != nil,
		BillingValidation:        validation,
	}
}

// transitionErr converts a CAS conflict into a user-facing rejection; other
// failures pass through wrapped.
func (s *Service) transitionErr(err error) error {
	if errors.Is(err, repository.ErrStatusConflict) {
		return s.rejectf(RejectIllegalTransition, "visit status changed while you were working, please reload and try again")
	}
	return fmt.Errorf("failed to apply visit transition: %w", err)
}
