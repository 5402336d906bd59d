package procedurescope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woundtrack/ehr-api/internal/model"
)

func testRuleSet() RuleSet {
	return NewRuleSet([]*model.ProcedureScope{
		{
			ProcedureCode:      "11042",
			ProcedureName:      "Debridement, subcutaneous tissue",
			Category:           model.ProcedureCategoryDebridement,
			AllowedCredentials: []string{"MD", "DO", "PA", "NP"},
		},
		{
			ProcedureCode:      "97597",
			ProcedureName:      "Debridement, open wound",
			Category:           model.ProcedureCategoryDebridement,
			AllowedCredentials: []string{"MD", "DO", "PA", "NP", "RN"},
		},
		{
			ProcedureCode:      "15271",
			ProcedureName:      "Skin substitute graft application",
			Category:           model.ProcedureCategoryGrafting,
			AllowedCredentials: []string{"MD", "DO"},
		},
	})
}

func credential(c model.Credential) *model.Credential {
	return &c
}

func TestCheckCodesAllowedCredential(t *testing.T) {
	rs := testRuleSet()

	checks := rs.CheckCodes(credential(model.CredentialMD), []string{"11042", "97597", "15271"})
	require.Len(t, checks, 3)
	for _, chk := range checks {
		assert.True(t, chk.Allowed, "MD should document %s", chk.Code)
	}
}

func TestCheckCodesDeniedCredential(t *testing.T) {
	rs := testRuleSet()

	checks := rs.CheckCodes(credential(model.CredentialRN), []string{"11042", "97597", "15271"})
	require.Len(t, checks, 3)

	byCode := map[string]model.CodeCheck{}
	for _, chk := range checks {
		byCode[chk.Code] = chk
	}
	assert.False(t, byCode["11042"].Allowed)
	assert.True(t, byCode["97597"].Allowed)
	assert.False(t, byCode["15271"].Allowed)
}

func TestCheckCodesUnknownCodeAllowedByDefault(t *testing.T) {
	rs := testRuleSet()

	checks := rs.CheckCodes(credential(model.CredentialCNA), []string{"99213"})
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Allowed, "codes with no rule are unrestricted")
	assert.Empty(t, checks[0].Name)
}

func TestCheckCodesNilCredentialDeniesEverything(t *testing.T) {
	rs := testRuleSet()

	checks := rs.CheckCodes(nil, []string{"11042", "99213"})
	require.Len(t, checks, 2)
	for _, chk := range checks {
		assert.False(t, chk.Allowed, "no credential must deny %s, even unrestricted codes", chk.Code)
	}
}

func TestCheckCodesEmptyRuleSet(t *testing.T) {
	rs := NewRuleSet(nil)

	checks := rs.CheckCodes(credential(model.CredentialLVN), []string{"11042"})
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Allowed)
}

func TestValidateDenialMessage(t *testing.T) {
	rs := testRuleSet()

	validation := rs.Validate(credential(model.CredentialRN), []string{"11042"})
	assert.False(t, validation.Valid)
	require.Len(t, validation.Errors, 1)
	assert.Equal(t,
		"Cannot document CPT 11042 (Debridement, subcutaneous tissue): Requires MD, DO, PA, NP credentials",
		validation.Errors[0],
	)
}

func TestValidateNilCredentialMessage(t *testing.T) {
	rs := testRuleSet()

	validation := rs.Validate(nil, []string{"99213"})
	assert.False(t, validation.Valid)
	require.Len(t, validation.Errors, 1)
	assert.Equal(t, "Cannot document CPT 99213: no clinical credential on file", validation.Errors[0])
}

func TestValidateEmptyCodeListIsValid(t *testing.T) {
	rs := testRuleSet()

	validation := rs.Validate(credential(model.CredentialRN), nil)
	assert.True(t, validation.Valid)
	assert.Empty(t, validation.Errors)
}

func TestValidateCollectsEveryDenial(t *testing.T) {
	rs := testRuleSet()

	validation := rs.Validate(credential(model.CredentialLVN), []string{"11042", "97597", "15271"})
	assert.False(t, validation.Valid)
	assert.Len(t, validation.Errors, 3)
}

func TestNewRuleSetLastRowWins(t *testing.T) {
	rs := NewRuleSet([]*model.ProcedureScope{
		{ProcedureCode: "11042", AllowedCredentials: []string{"MD"}},
		{ProcedureCode: "11042", AllowedCredentials: []string{"MD", "RN"}},
	})

	checks := rs.CheckCodes(credential(model.CredentialRN), []string{"11042"})
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Allowed)
}
