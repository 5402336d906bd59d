package procedurescope

import (
	"fmt"
	"strings"

	"github.com/woundtrack/ehr-api/internal/model"
)

// RuleSet is the in-memory procedure scope table, keyed by CPT code. It is a
// point-in-time snapshot; editing rules later never invalidates billing rows
// that were validated against an earlier snapshot.
type RuleSet map[string]*model.ProcedureScope

// NewRuleSet builds a lookup table from scope rows. Last row wins if a code
// is duplicated, matching the unique constraint on the table.
func NewRuleSet(scopes []*model.ProcedureScope) RuleSet {
	rs := make(RuleSet, len(scopes))
	for _, s := range scopes {
		rs[s.ProcedureCode] = s
	}
	return rs
}

// CheckCodes decides, per code, whether the credential may document it.
//
// Two deliberately asymmetric defaults:
//   - a code with no scope rule is allowed for any credential (unrestricted
//     codes are not maintained in the table);
//   - an actor with no credential at all is denied every code.
//
// It never returns an error; unknown credentials and codes only produce
// boolean outcomes.
func (rs RuleSet) CheckCodes(credential *model.Credential, codes []string) []model.CodeCheck {
	results := make([]model.CodeCheck, 0, len(codes))
	for _, code := range codes {
		scope, restricted := rs[code]
		check := model.CodeCheck{Code: code}
		if restricted {
			check.Name = scope.ProcedureName
		}

		switch {
		case credential == nil:
			check.Allowed = false
		case !restricted:
			// Not in the scope table: allow by default, not restricted.
			check.Allowed = true
		default:
			check.Allowed = scope.Allows(*credential)
		}
		results = append(results, check)
	}
	return results
}

// Validate runs CheckCodes and renders a denial message for every disallowed
// code. Valid is true iff there are no denials; an empty code list is
// trivially valid.
func (rs RuleSet) Validate(credential *model.Credential, codes []string) model.CodeValidation {
	validation := model.CodeValidation{Valid: true, Errors: []string{}}
	for _, check := range rs.CheckCodes(credential, codes) {
		if check.Allowed {
			continue
		}
		validation.Valid = false
		validation.Errors = append(validation.Errors, rs.denialMessage(check))
	}
	return validation
}

func (rs RuleSet) denialMessage(check model.CodeCheck) string {
	scope, ok := rs[check.Code]
	if !ok || len(scope.AllowedCredentials) == 0 {
		return fmt.Sprintf("Cannot document CPT %s: no clinical credential on file", check.Code)
	}
	return fmt.Sprintf("Cannot document CPT %s (%s): Requires %s credentials",
		scope.ProcedureCode,
		scope.ProcedureName,
		strings.Join(scope.AllowedCredentials, ", "),
	)
}
