package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ProcedureCategory string

const (
	ProcedureCategoryDebridement ProcedureCategory = "debridement"
	ProcedureCategoryEvaluation  ProcedureCategory = "evaluation"
	ProcedureCategoryDressing    ProcedureCategory = "dressing"
	ProcedureCategoryGrafting    ProcedureCategory = "grafting"
	ProcedureCategoryOther       ProcedureCategory = "other"
)

// ProcedureScope maps one CPT procedure code to the set of credentials
// permitted to document it. A code appears at most once per tenant. Rows are
// never hard-deleted; an admin supersedes a rule by editing its allowed set.
type ProcedureScope struct {
	Base
	TenantID           uuid.UUID         `db:"tenant_id" json:"tenant_id"`
	ProcedureCode      string            `db:"procedure_code" json:"procedure_code"`
	ProcedureName      string            `db:"procedure_name" json:"procedure_name"`
	Category           ProcedureCategory `db:"category" json:"category"`
	AllowedCredentials pq.StringArray    `db:"allowed_credentials" json:"allowed_credentials"`
}

// Allows reports whether the credential is in the rule's allowed set.
func (p *ProcedureScope) Allows(c Credential) bool {
	for _, a := range p.AllowedCredentials {
		if Credential(a) == c {
			return true
		}
	}
	return false
}

type CreateProcedureScopeRequest struct {
	ProcedureCode      string   `json:"procedure_code" validate:"required,max=10"`
	ProcedureName      string   `json:"procedure_name" validate:"required,max=255"`
	Category           string   `json:"category" validate:"required,oneof=debridement evaluation dressing grafting other"`
	AllowedCredentials []string `json:"allowed_credentials" validate:"required,min=1,dive,oneof=RN LVN MD DO PA NP CNA Admin"`
}

type UpdateProcedureScopeRequest struct {
	ProcedureName      *string  `json:"procedure_name"`
	Category           *string  `json:"category"`
	AllowedCredentials []string `json:"allowed_credentials" validate:"omitempty,min=1,dive,oneof=RN LVN MD DO PA NP CNA Admin"`
}

// CodeCheck is the per-code outcome of an authorization check.
type CodeCheck struct {
	Code    string `json:"code"`
	Allowed bool   `json:"allowed"`
	Name    string `json:"name,omitempty"`
}

// CodeValidation is the aggregate outcome of validating a code list.
type CodeValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
