package model

import (
	"time"

	"github.com/google/uuid"
)

// VisitStatus is the controlling field of the visit lifecycle. Draft visits
// are freely editable; once signed or submitted the only legal mutation is an
// addendum. Voided is terminal.
type VisitStatus string

const (
	VisitStatusDraft               VisitStatus = "draft"
	VisitStatusReadyForSignature   VisitStatus = "ready_for_signature"
	VisitStatusSigned              VisitStatus = "signed"
	VisitStatusSubmitted           VisitStatus = "submitted"
	VisitStatusApproved            VisitStatus = "approved"
	VisitStatusCorrectionRequested VisitStatus = "correction_requested"
	VisitStatusVoided              VisitStatus = "voided"
)

// Scheduling labels layered on the same record by the calendar. They are not
// subject to the approval gate; completed/incomplete behave like draft for
// editability.
const (
	VisitScheduleScheduled  = "scheduled"
	VisitScheduleInProgress = "in_progress"
	VisitScheduleCompleted  = "completed"
	VisitScheduleCancelled  = "cancelled"
	VisitScheduleNoShow     = "no_show"
	VisitScheduleIncomplete = "incomplete"
	VisitScheduleComplete   = "complete"
)

// IsTerminal reports whether no further lifecycle transitions are legal.
func (s VisitStatus) IsTerminal() bool {
	return s == VisitStatusVoided
}

// Editable reports whether ordinary field edits are still legal.
func (s VisitStatus) Editable() bool {
	switch s {
	case VisitStatusDraft, VisitStatusReadyForSignature, VisitStatusCorrectionRequested:
		return true
	}
	return false
}

// Finalized reports whether the visit has reached signed or a later status.
func (s VisitStatus) Finalized() bool {
	switch s {
	case VisitStatusSigned, VisitStatusSubmitted, VisitStatusApproved:
		return true
	}
	return false
}

type VisitType string

const (
	VisitTypeInitial   VisitType = "initial"
	VisitTypeFollowUp  VisitType = "follow_up"
	VisitTypeDischarge VisitType = "discharge"
)

// Visit is one clinical encounter. requires_patient_signature is derived from
// the clinician's credential at creation time and never recomputed afterwards.
type Visit struct {
	Base
	TenantID                 uuid.UUID   `db:"tenant_id" json:"tenant_id"`
	FacilityID               uuid.UUID   `db:"facility_id" json:"facility_id"`
	PatientID                uuid.UUID   `db:"patient_id" json:"patient_id"`
	ClinicianID              uuid.UUID   `db:"clinician_id" json:"clinician_id"`
	ClinicianCredential      Credential  `db:"clinician_credential" json:"clinician_credential"`
	VisitDate                time.Time   `db:"visit_date" json:"visit_date"`
	VisitType                VisitType   `db:"visit_type" json:"visit_type"`
	Status                   VisitStatus `db:"status" json:"status"`
	ScheduleStatus           string      `db:"schedule_status" json:"schedule_status,omitempty"`
	RequiresPatientSignature bool        `db:"requires_patient_signature" json:"requires_patient_signature"`
	ProviderSignatureID      *uuid.UUID  `db:"provider_signature_id" json:"provider_signature_id,omitempty"`
	PatientSignatureID       *uuid.UUID  `db:"patient_signature_id" json:"patient_signature_id,omitempty"`
	NumberOfAddenda          int         `db:"number_of_addenda" json:"number_of_addenda"`
	Notes                    string      `db:"notes" json:"notes,omitempty"`
}

type CreateVisitRequest struct {
	PatientID  string    `json:"patient_id" validate:"required,uuid"`
	FacilityID string    `json:"facility_id" validate:"required,uuid"`
	VisitDate  time.Time `json:"visit_date" validate:"required"`
	VisitType  string    `json:"visit_type" validate:"required,oneof=initial follow_up discharge"`
	Notes      string    `json:"notes" validate:"max=10000"`
}

type UpdateVisitRequest struct {
	VisitDate *time.Time `json:"visit_date"`
	VisitType *string    `json:"visit_type"`
	Notes     *string    `json:"notes"`
}

// VisitNoteType distinguishes the append-only notes attached after a visit
// leaves draft.
type VisitNoteType string

const (
	VisitNoteAddendum   VisitNoteType = "addendum"
	VisitNoteCorrection VisitNoteType = "correction_request"
	VisitNoteVoid       VisitNoteType = "void"
)

// VisitNote is an Addendum, CorrectionRequest or VoidRecord. Never edited or
// deleted once created.
type VisitNote struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	VisitID   uuid.UUID     `db:"visit_id" json:"visit_id"`
	Type      VisitNoteType `db:"type" json:"type"`
	AuthorID  uuid.UUID     `db:"author_id" json:"author_id"`
	Note      string        `db:"note" json:"note"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

type VisitFilters struct {
	TenantID    uuid.UUID
	FacilityID  uuid.UUID
	PatientID   uuid.UUID
	ClinicianID uuid.UUID
	Status      VisitStatus
	StartDate   time.Time
	EndDate     time.Time
}
