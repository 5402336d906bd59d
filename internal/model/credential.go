package model

// Credential is the clinical qualification assigned to a user. It gates which
// CPT codes the user may document and whether their visits need a patient
// countersignature. Changed only through an administrative role edit.
type Credential string

const (
	CredentialRN    Credential = "RN"
	CredentialLVN   Credential = "LVN"
	CredentialMD    Credential = "MD"
	CredentialDO    Credential = "DO"
	CredentialPA    Credential = "PA"
	CredentialNP    Credential = "NP"
	CredentialCNA   Credential = "CNA"
	CredentialAdmin Credential = "Admin"
)

// Credentials lists every valid credential, in display order.
var Credentials = []Credential{
	CredentialRN,
	CredentialLVN,
	CredentialMD,
	CredentialDO,
	CredentialPA,
	CredentialNP,
	CredentialCNA,
	CredentialAdmin,
}

// IsValid reports whether c is one of the enumerated credentials.
func (c Credential) IsValid() bool {
	for _, v := range Credentials {
		if c == v {
			return true
		}
	}
	return false
}

// RequiresPatientSignature reports whether visits documented under this
// credential need a patient countersignature before signing. Credentials
// without independent-practice authority require one.
func (c Credential) RequiresPatientSignature() bool {
	switch c {
	case CredentialRN, CredentialLVN, CredentialCNA:
		return true
	}
	return false
}

// Role is the actor role used by the visit lifecycle guards.
type Role string

const (
	RoleClinician      Role = "clinician"
	RoleOfficeReviewer Role = "office_reviewer"
	RoleTenantAdmin    Role = "tenant_admin"
)

// CanReview reports whether the role may approve, request correction on, or
// void a submitted visit.
func (r Role) CanReview() bool {
	return r == RoleOfficeReviewer || r == RoleTenantAdmin
}
