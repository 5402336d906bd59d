package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/woundtrack/ehr-api/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict is returned when a conditional status update matched
	// zero rows: someone else transitioned the visit first.
	ErrStatusConflict = errors.New("visit status changed concurrently")
)

type ProcedureScopeRepository interface {
	Create(ctx context.Context, scope *model.ProcedureScope) error
	Update(ctx context.Context, scope *model.ProcedureScope) error
	Get(ctx context.Context, id uuid.UUID) (*model.ProcedureScope, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*model.ProcedureScope, error)
}

type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	Get(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	Update(ctx context.Context, visit *model.Visit) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.VisitFilters) ([]*model.Visit, error)

	// WithTx runs fn inside one transaction; status change, signature
	// attachment and note append either all land or none do.
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error

	// TransitionStatusTx performs the compare-and-swap status write. Returns
	// ErrStatusConflict when the visit is no longer in the expected status.
	TransitionStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.VisitStatus) error
	AttachSignatureTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, kind model.SignatureKind, signatureID uuid.UUID) error
	AppendNoteTx(ctx context.Context, tx *sqlx.Tx, note *model.VisitNote) error
	IncrementAddendaTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error

	ListNotes(ctx context.Context, visitID uuid.UUID) ([]*model.VisitNote, error)
	ListPendingReview(ctx context.Context, tenantID uuid.UUID) ([]*model.Visit, error)
	ListApprovedUnclaimed(ctx context.Context, limit int) ([]*model.Visit, error)
	MarkClaimed(ctx context.Context, id uuid.UUID) error
}

type BillingRepository interface {
	Upsert(ctx context.Context, billing *model.Billing) error
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*model.Billing, error)
	DeleteByVisit(ctx context.Context, visitID uuid.UUID) error
	MarkValidatedTx(ctx context.Context, tx *sqlx.Tx, visitID, validatorID uuid.UUID) error
}

type SignatureRepository interface {
	Create(ctx context.Context, sig *model.Signature) error
	Get(ctx context.Context, id uuid.UUID) (*model.Signature, error)
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
}

type WoundRepository interface {
	Create(ctx context.Context, wound *model.Wound) error
	Get(ctx context.Context, id uuid.UUID) (*model.Wound, error)
	Update(ctx context.Context, wound *model.Wound) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Wound, error)
	CreateAssessment(ctx context.Context, a *model.WoundAssessment) error
	ListAssessments(ctx context.Context, woundID uuid.UUID) ([]*model.WoundAssessment, error)
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *model.WoundPhoto) error
	Get(ctx context.Context, id uuid.UUID) (*model.WoundPhoto, error)
	ListByWound(ctx context.Context, woundID uuid.UUID) ([]*model.WoundPhoto, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
}

type ReportRepository interface {
	VisitVolume(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (map[string]int, error)
}
