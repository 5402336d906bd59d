package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Billing holds the procedure and diagnosis codes attached to exactly one
// visit. CPT codes are validated against the authoring clinician's credential
// at submission time; later rule edits do not retroactively invalidate rows.
type Billing struct {
	Base
	VisitID     uuid.UUID      `db:"visit_id" json:"visit_id"`
	TenantID    uuid.UUID      `db:"tenant_id" json:"tenant_id"`
	CPTCodes    pq.StringArray `db:"cpt_codes" json:"cpt_codes"`
	ICD10Codes  pq.StringArray `db:"icd10_codes" json:"icd10_codes"`
	Modifiers   pq.StringArray `db:"modifiers" json:"modifiers"`
	ValidatedBy *uuid.UUID     `db:"validated_by" json:"validated_by,omitempty"`
}

type UpsertBillingRequest struct {
	CPTCodes   []string `json:"cpt_codes" validate:"dive,max=10"`
	ICD10Codes []string `json:"icd10_codes" validate:"dive,max=10"`
	Modifiers  []string `json:"modifiers" validate:"dive,max=5"`
}

// Claim is the shape submitted to the external clearinghouse for an approved
// visit.
type Claim struct {
	VisitID    uuid.UUID `json:"visit_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	VisitDate  string    `json:"visit_date"`
	CPTCodes   []string  `json:"cpt_codes"`
	ICD10Codes []string  `json:"icd10_codes"`
	Modifiers  []string  `json:"modifiers"`
}
