package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialIsValid(t *testing.T) {
	for _, c := range Credentials {
		assert.True(t, c.IsValid(), "%s should be valid", c)
	}
	assert.False(t, Credential("DOCTOR").IsValid())
	assert.False(t, Credential("").IsValid())
}

func TestRequiresPatientSignature(t *testing.T) {
	tests := []struct {
		credential Credential
		required   bool
	}{
		{CredentialRN, true},
		{CredentialLVN, true},
		{CredentialCNA, true},
		{CredentialMD, false},
		{CredentialDO, false},
		{CredentialPA, false},
		{CredentialNP, false},
		{CredentialAdmin, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.required, tt.credential.RequiresPatientSignature(), "credential %s", tt.credential)
	}
}

func TestRoleCanReview(t *testing.T) {
	assert.True(t, RoleOfficeReviewer.CanReview())
	assert.True(t, RoleTenantAdmin.CanReview())
	assert.False(t, RoleClinician.CanReview())
}

func TestVisitStatusPredicates(t *testing.T) {
	assert.True(t, VisitStatusVoided.IsTerminal())
	assert.False(t, VisitStatusApproved.IsTerminal())

	assert.True(t, VisitStatusDraft.Editable())
	assert.True(t, VisitStatusCorrectionRequested.Editable())
	assert.False(t, VisitStatusSigned.Editable())

	assert.True(t, VisitStatusSigned.Finalized())
	assert.True(t, VisitStatusSubmitted.Finalized())
	assert.True(t, VisitStatusApproved.Finalized())
	assert.False(t, VisitStatusDraft.Finalized())
	assert.False(t, VisitStatusVoided.Finalized())
}
