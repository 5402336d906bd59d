package model

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive     PatientStatus = "active"
	PatientStatusDischarged PatientStatus = "discharged"
	PatientStatusDeceased   PatientStatus = "deceased"
)

type Patient struct {
	Base
	TenantID    uuid.UUID     `db:"tenant_id" json:"tenant_id"`
	FacilityID  uuid.UUID     `db:"facility_id" json:"facility_id"`
	FirstName   string        `db:"first_name" json:"first_name"`
	LastName    string        `db:"last_name" json:"last_name"`
	DateOfBirth time.Time     `db:"date_of_birth" json:"date_of_birth"`
	Gender      string        `db:"gender" json:"gender,omitempty"`
	MRN         string        `db:"mrn" json:"mrn"`
	Phone       string        `db:"phone" json:"phone,omitempty"`
	Email       string        `db:"email" json:"email,omitempty"`
	Address     string        `db:"address" json:"address,omitempty"`
	Status      PatientStatus `db:"status" json:"status"`
}

type CreatePatientRequest struct {
	FacilityID  string    `json:"facility_id" validate:"required,uuid"`
	FirstName   string    `json:"first_name" validate:"required,max=100"`
	LastName    string    `json:"last_name" validate:"required,max=100"`
	DateOfBirth time.Time `json:"date_of_birth" validate:"required"`
	Gender      string    `json:"gender" validate:"omitempty,oneof=male female other"`
	MRN         string    `json:"mrn" validate:"required,max=50"`
	Phone       string    `json:"phone" validate:"max=20"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Address     string    `json:"address" validate:"max=500"`
}

type UpdatePatientRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Gender    *string `json:"gender"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Address   *string `json:"address"`
	Status    *string `json:"status" validate:"omitempty,oneof=active discharged deceased"`
}

type PatientFilters struct {
	TenantID   uuid.UUID
	FacilityID uuid.UUID
	Status     PatientStatus
	Search     string
	Pagination
}
