package visit

import (
	"fmt"

	"github.com/woundtrack/ehr-api/internal/model"
)

// Action is a mutation attempted against a visit. Edit, Delete and Addendum
// do not change the lifecycle status; the rest do.
type Action string

const (
	ActionEdit              Action = "edit"
	ActionDelete            Action = "delete"
	ActionMarkReady         Action = "mark_ready"
	ActionSign              Action = "sign"
	ActionSubmit            Action = "submit"
	ActionApprove           Action = "approve"
	ActionRequestCorrection Action = "request_correction"
	ActionVoid              Action = "void"
	ActionAddendum          Action = "addendum"
)

// RejectionKind discriminates why a transition was refused.
type RejectionKind string

const (
	RejectIllegalTransition   RejectionKind = "illegal_transition"
	RejectMissingSignature    RejectionKind = "missing_signature"
	RejectAuthorizationDenied RejectionKind = "authorization_denied"
)

// Decision is the outcome of evaluating one transition attempt. Business-rule
// refusals come back as a non-allowed Decision, never as a Go error.
type Decision struct {
	Allowed bool
	Next    model.VisitStatus
	Kind    RejectionKind
	Reason  string
}

func allow(next model.VisitStatus) Decision {
	return Decision{Allowed: true, Next: next}
}

func reject(kind RejectionKind, format string, args ...interface{}) Decision {
	return Decision{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// TransitionInput carries everything the state machine needs. The acting role
// and credential arrive as explicit arguments; the machine never reads
// ambient session state.
type TransitionInput struct {
	Status                   model.VisitStatus
	Action                   Action
	ActorRole                model.Role
	ActorIsOwner             bool
	RequiresPatientSignature bool
	HasProviderSignature     bool
	HasPatientSignature      bool

	// BillingValidation is the authorizer's verdict on any attached CPT
	// codes, nil when the visit has no billing row. Only consulted by the
	// sign transition: drafts may hold provisionally invalid codes.
	BillingValidation *model.CodeValidation
}

// signable lists the statuses from which a visit can move toward signature.
// correction_requested is draft-like editable, so the cycle submitted →
// correction_requested → signed → submitted is legal.
var signable = map[model.VisitStatus]bool{
	model.VisitStatusDraft:               true,
	model.VisitStatusReadyForSignature:   true,
	model.VisitStatusCorrectionRequested: true,
}

// addendable lists the statuses in which the only legal mutation is an
// append-only addendum.
var addendable = map[model.VisitStatus]bool{
	model.VisitStatusSigned:    true,
	model.VisitStatusSubmitted: true,
	model.VisitStatusApproved:  true,
}

// Evaluate applies the transition table to one attempt. It is a pure
// function: same input, same decision.
func Evaluate(in TransitionInput) Decision {
	if in.Status.IsTerminal() {
		return reject(RejectIllegalTransition, "visit has been voided and can no longer be modified")
	}

	switch in.Action {
	case ActionEdit:
		if in.Status.Finalized() {
			return reject(RejectIllegalTransition, "Cannot edit visit that has been signed or submitted")
		}
		if !in.ActorIsOwner && in.ActorRole != model.RoleTenantAdmin {
			return reject(RejectIllegalTransition, "only the documenting clinician or a tenant admin may edit this visit")
		}
		return allow(in.Status)

	case ActionDelete:
		if in.Status.Finalized() {
			return reject(RejectIllegalTransition, "Cannot delete visit that has been signed or submitted")
		}
		if in.Status != model.VisitStatusDraft {
			return reject(RejectIllegalTransition, "visits can only be deleted while in draft")
		}
		if !in.ActorIsOwner && in.ActorRole != model.RoleTenantAdmin {
			return reject(RejectIllegalTransition, "only the documenting clinician or a tenant admin may delete this visit")
		}
		return allow(in.Status)

	case ActionMarkReady:
		if in.Status != model.VisitStatusDraft {
			return reject(RejectIllegalTransition, "visit must be in draft to mark ready for signature, current status is %s", in.Status)
		}
		if !in.ActorIsOwner && in.ActorRole != model.RoleTenantAdmin {
			return reject(RejectIllegalTransition, "only the documenting clinician may prepare this visit for signature")
		}
		return allow(model.VisitStatusReadyForSignature)

	case ActionSign:
		if !signable[in.Status] {
			return reject(RejectIllegalTransition, "visit cannot be signed from status %s", in.Status)
		}
		if !in.ActorIsOwner && in.ActorRole != model.RoleTenantAdmin {
			return reject(RejectIllegalTransition, "only the documenting clinician may sign this visit")
		}
		if !in.HasProviderSignature {
			return reject(RejectMissingSignature, "provider signature is required to sign this visit")
		}
		if in.RequiresPatientSignature && !in.HasPatientSignature {
			return reject(RejectMissingSignature, "patient signature is required before this visit can be signed")
		}
		if in.BillingValidation != nil && !in.BillingValidation.Valid {
			reason := "billing codes failed credential validation"
			if len(in.BillingValidation.Errors) > 0 {
				reason = in.BillingValidation.Errors[0]
			}
			return reject(RejectAuthorizationDenied, "%s", reason)
		}
		return allow(model.VisitStatusSigned)

	case ActionSubmit:
		if in.Status != model.VisitStatusSigned {
			return reject(RejectIllegalTransition, "visit must be signed before submission, current status is %s", in.Status)
		}
		if !in.ActorIsOwner && in.ActorRole != model.RoleTenantAdmin {
			return reject(RejectIllegalTransition, "only the documenting clinician may submit this visit")
		}
		return allow(model.VisitStatusSubmitted)

	case ActionApprove:
		if !in.ActorRole.CanReview() {
			return reject(RejectIllegalTransition, "only office reviewers may approve visits")
		}
		if in.Status != model.VisitStatusSubmitted {
			return reject(RejectIllegalTransition, "only submitted visits can be approved, current status is %s", in.Status)
		}
		return allow(model.VisitStatusApproved)

	case ActionRequestCorrection:
		if !in.ActorRole.CanReview() {
			return reject(RejectIllegalTransition, "only office reviewers may request corrections")
		}
		if in.Status != model.VisitStatusSubmitted {
			return reject(RejectIllegalTransition, "corrections can only be requested on submitted visits, current status is %s", in.Status)
		}
		return allow(model.VisitStatusCorrectionRequested)

	case ActionVoid:
		if !in.ActorRole.CanReview() {
			return reject(RejectIllegalTransition, "only office reviewers may void visits")
		}
		return allow(model.VisitStatusVoided)

	case ActionAddendum:
		if !addendable[in.Status] {
			return reject(RejectIllegalTransition, "addenda can only be added to signed, submitted or approved visits")
		}
		if !in.ActorIsOwner && !in.ActorRole.CanReview() {
			return reject(RejectIllegalTransition, "only the documenting clinician or a reviewer may add an addendum")
		}
		return allow(in.Status)
	}

	return reject(RejectIllegalTransition, "unknown action %q", in.Action)
}
