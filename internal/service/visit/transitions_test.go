package visit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/woundtrack/ehr-api/internal/model"
)

func ownerInput(status model.VisitStatus, action Action) TransitionInput {
	return TransitionInput{
		Status:       status,
		Action:       action,
		ActorRole:    model.RoleClinician,
		ActorIsOwner: true,
	}
}

func TestEvaluateEditGate(t *testing.T) {
	tests := []struct {
		name    string
		status  model.VisitStatus
		allowed bool
	}{
		{"draft editable", model.VisitStatusDraft, true},
		{"ready editable", model.VisitStatusReadyForSignature, true},
		{"correction requested editable", model.VisitStatusCorrectionRequested, true},
		{"signed locked", model.VisitStatusSigned, false},
		{"submitted locked", model.VisitStatusSubmitted, false},
		{"approved locked", model.VisitStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(ownerInput(tt.status, ActionEdit))
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, RejectIllegalTransition, d.Kind)
				assert.Equal(t, "Cannot edit visit that has been signed or submitted", d.Reason)
			}
		})
	}
}

func TestEvaluateDeleteOnlyInDraft(t *testing.T) {
	d := Evaluate(ownerInput(model.VisitStatusDraft, ActionDelete))
	assert.True(t, d.Allowed)

	d = Evaluate(ownerInput(model.VisitStatusSigned, ActionDelete))
	assert.False(t, d.Allowed)
	assert.Equal(t, "Cannot delete visit that has been signed or submitted", d.Reason)

	d = Evaluate(ownerInput(model.VisitStatusReadyForSignature, ActionDelete))
	assert.False(t, d.Allowed)
}

func TestEvaluateVoidedIsTerminal(t *testing.T) {
	for _, action := range []Action{ActionEdit, ActionDelete, ActionSign, ActionSubmit, ActionApprove, ActionAddendum, ActionVoid} {
		in := ownerInput(model.VisitStatusVoided, action)
		in.ActorRole = model.RoleTenantAdmin
		d := Evaluate(in)
		assert.False(t, d.Allowed, "voided visit must refuse %s", action)
		assert.Equal(t, RejectIllegalTransition, d.Kind)
	}
}

func TestEvaluateSignRequiresProviderSignature(t *testing.T) {
	in := ownerInput(model.VisitStatusReadyForSignature, ActionSign)
	d := Evaluate(in)
	assert.False(t, d.Allowed)
	assert.Equal(t, RejectMissingSignature, d.Kind)

	in.HasProviderSignature = true
	d = Evaluate(in)
	assert.True(t, d.Allowed)
	assert.Equal(t, model.VisitStatusSigned, d.Next)
}

func TestEvaluateSignPatientSignatureOnlyWhenRequired(t *testing.T) {
	in := ownerInput(model.VisitStatusDraft, ActionSign)
	in.HasProviderSignature = true
	in.RequiresPatientSignature = true

	d := Evaluate(in)
	assert.False(t, d.Allowed)
	assert.Equal(t, RejectMissingSignature, d.Kind)

	in.HasPatientSignature = true
	d = Evaluate(in)
	assert.True(t, d.Allowed)

	// Physician-credential visits never wait on a patient signature.
	in.RequiresPatientSignature = false
	in.HasPatientSignature = false
	d = Evaluate(in)
	assert.True(t, d.Allowed)
}

func TestEvaluateSignBlockedByBillingValidation(t *testing.T) {
	in := ownerInput(model.VisitStatusReadyForSignature, ActionSign)
	in.HasProviderSignature = true
	in.BillingValidation = &model.CodeValidation{
		Valid:  false,
		Errors: []string{"Cannot document CPT 11042 (Debridement, subcutaneous tissue): Requires MD, DO, PA, NP credentials"},
	}

	d := Evaluate(in)
	assert.False(t, d.Allowed)
	assert.Equal(t, RejectAuthorizationDenied, d.Kind)
	assert.Equal(t, in.BillingValidation.Errors[0], d.Reason)
}

func TestEvaluateSignFromCorrectionRequested(t *testing.T) {
	in := ownerInput(model.VisitStatusCorrectionRequested, ActionSign)
	in.HasProviderSignature = true
	d := Evaluate(in)
	assert.True(t, d.Allowed)
	assert.Equal(t, model.VisitStatusSigned, d.Next)
}

func TestEvaluateSubmitOnlyFromSigned(t *testing.T) {
	d := Evaluate(ownerInput(model.VisitStatusSigned, ActionSubmit))
	assert.True(t, d.Allowed)
	assert.Equal(t, model.VisitStatusSubmitted, d.Next)

	d = Evaluate(ownerInput(model.VisitStatusDraft, ActionSubmit))
	assert.False(t, d.Allowed)
}

func TestEvaluateReviewActionsNeedReviewerRole(t *testing.T) {
	clinician := TransitionInput{
		Status:       model.VisitStatusSubmitted,
		ActorRole:    model.RoleClinician,
		ActorIsOwner: true,
	}

	for _, action := range []Action{ActionApprove, ActionRequestCorrection, ActionVoid} {
		in := clinician
		in.Action = action
		d := Evaluate(in)
		assert.False(t, d.Allowed, "clinician must not %s", action)
	}

	reviewer := clinician
	reviewer.ActorRole = model.RoleOfficeReviewer
	reviewer.ActorIsOwner = false

	reviewer.Action = ActionApprove
	d := Evaluate(reviewer)
	assert.True(t, d.Allowed)
	assert.Equal(t, model.VisitStatusApproved, d.Next)

	reviewer.Action = ActionRequestCorrection
	d = Evaluate(reviewer)
	assert.True(t, d.Allowed)
	assert.Equal(t, model.VisitStatusCorrectionRequested, d.Next)

	reviewer.Action = ActionVoid
	d = Evaluate(reviewer)
	assert.True(t, d.Allowed)
	assert.Equal(t, model.VisitStatusVoided, d.Next)
}

func TestEvaluateApproveOnlyFromSubmitted(t *testing.T) {
	in := TransitionInput{
		Status:    model.VisitStatusSigned,
		Action:    ActionApprove,
		ActorRole: model.RoleOfficeReviewer,
	}
	d := Evaluate(in)
	assert.False(t, d.Allowed)
}

func TestEvaluateVoidFromAnyNonTerminalStatus(t *testing.T) {
	for _, status := range []model.VisitStatus{
		model.VisitStatusDraft,
		model.VisitStatusReadyForSignature,
		model.VisitStatusSigned,
		model.VisitStatusSubmitted,
		model.VisitStatusApproved,
		model.VisitStatusCorrectionRequested,
	} {
		in := TransitionInput{Status: status, Action: ActionVoid, ActorRole: model.RoleTenantAdmin}
		d := Evaluate(in)
		assert.True(t, d.Allowed, "void should be legal from %s", status)
		assert.Equal(t, model.VisitStatusVoided, d.Next)
	}
}

func TestEvaluateAddendumGate(t *testing.T) {
	for _, status := range []model.VisitStatus{
		model.VisitStatusSigned,
		model.VisitStatusSubmitted,
		model.VisitStatusApproved,
	} {
		d := Evaluate(ownerInput(status, ActionAddendum))
		assert.True(t, d.Allowed, "addendum should be legal on %s", status)
		assert.Equal(t, status, d.Next, "addendum never changes status")
	}

	d := Evaluate(ownerInput(model.VisitStatusDraft, ActionAddendum))
	assert.False(t, d.Allowed)
}

func TestEvaluateNonOwnerClinicianCannotMutate(t *testing.T) {
	in := TransitionInput{
		Status:       model.VisitStatusDraft,
		Action:       ActionEdit,
		ActorRole:    model.RoleClinician,
		ActorIsOwner: false,
	}
	d := Evaluate(in)
	assert.False(t, d.Allowed)

	// Tenant admins may act on any visit.
	in.ActorRole = model.RoleTenantAdmin
	d = Evaluate(in)
	assert.True(t, d.Allowed)
}

func TestEvaluateUnknownAction(t *testing.T) {
	d := Evaluate(ownerInput(model.VisitStatusDraft, Action("archive")))
	assert.False(t, d.Allowed)
	assert.Equal(t, RejectIllegalTransition, d.Kind)
}

func TestEvaluateIsPure(t *testing.T) {
	in := ownerInput(model.VisitStatusDraft, ActionMarkReady)
	first := Evaluate(in)
	second := Evaluate(in)
	assert.Equal(t, first, second)
}
