package model

import (
	"time"

	"github.com/google/uuid"
)

type WoundStatus string

const (
	WoundStatusActive  WoundStatus = "active"
	WoundStatusHealed  WoundStatus = "healed"
	WoundStatusWorsen  WoundStatus = "worsening"
	WoundStatusClosed  WoundStatus = "closed"
	WoundStatusUnknown WoundStatus = "unknown"
)

type Wound struct {
	Base
	TenantID   uuid.UUID   `db:"tenant_id" json:"tenant_id"`
	PatientID  uuid.UUID   `db:"patient_id" json:"patient_id"`
	Location   string      `db:"location" json:"location"`
	WoundType  string      `db:"wound_type" json:"wound_type"`
	Stage      string      `db:"stage" json:"stage,omitempty"`
	Laterality string      `db:"laterality" json:"laterality,omitempty"`
	OnsetDate  *time.Time  `db:"onset_date" json:"onset_date,omitempty"`
	Status     WoundStatus `db:"status" json:"status"`
}

// WoundAssessment is one measurement of a wound taken during a visit.
// SurfaceArea is stored denormalized as length * width.
type WoundAssessment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	WoundID        uuid.UUID `db:"wound_id" json:"wound_id"`
	VisitID        uuid.UUID `db:"visit_id" json:"visit_id"`
	LengthCM       float64   `db:"length_cm" json:"length_cm"`
	WidthCM        float64   `db:"width_cm" json:"width_cm"`
	DepthCM        float64   `db:"depth_cm" json:"depth_cm"`
	SurfaceAreaCM2 float64   `db:"surface_area_cm2" json:"surface_area_cm2"`
	TissueType     string    `db:"tissue_type" json:"tissue_type,omitempty"`
	Exudate        string    `db:"exudate" json:"exudate,omitempty"`
	Odor           bool      `db:"odor" json:"odor"`
	PainLevel      int       `db:"pain_level" json:"pain_level"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	AssessedBy     uuid.UUID `db:"assessed_by" json:"assessed_by"`
	AssessedAt     time.Time `db:"assessed_at" json:"assessed_at"`
}

// HealingTrend compares the latest assessment of a wound against a baseline.
// PercentChange is negative when the wound is shrinking.
type HealingTrend struct {
	WoundID          uuid.UUID `json:"wound_id"`
	BaselineAreaCM2  float64   `json:"baseline_area_cm2"`
	CurrentAreaCM2   float64   `json:"current_area_cm2"`
	PercentChange    float64   `json:"percent_change"`
	AssessmentCount  int       `json:"assessment_count"`
	FirstAssessedAt  time.Time `json:"first_assessed_at"`
	LatestAssessedAt time.Time `json:"latest_assessed_at"`
}

type CreateWoundRequest struct {
	PatientID  string     `json:"patient_id" validate:"required,uuid"`
	Location   string     `json:"location" validate:"required,max=255"`
	WoundType  string     `json:"wound_type" validate:"required,max=100"`
	Stage      string     `json:"stage" validate:"max=50"`
	Laterality string     `json:"laterality" validate:"omitempty,oneof=left right bilateral midline"`
	OnsetDate  *time.Time `json:"onset_date"`
}

type CreateAssessmentRequest struct {
	VisitID    string  `json:"visit_id" validate:"required,uuid"`
	LengthCM   float64 `json:"length_cm" validate:"gte=0,lte=100"`
	WidthCM    float64 `json:"width_cm" validate:"gte=0,lte=100"`
	DepthCM    float64 `json:"depth_cm" validate:"gte=0,lte=50"`
	TissueType string  `json:"tissue_type" validate:"max=100"`
	Exudate    string  `json:"exudate" validate:"max=100"`
	Odor       bool    `json:"odor"`
	PainLevel  int     `json:"pain_level" validate:"gte=0,lte=10"`
	Notes      string  `json:"notes" validate:"max=5000"`
}

// WoundPhoto is the metadata row for a photo stored in object storage.
type WoundPhoto struct {
	ID         uuid.UUID `db:"id" json:"id"`
	WoundID    uuid.UUID `db:"wound_id" json:"wound_id"`
	VisitID    *uuid.UUID `db:"visit_id" json:"visit_id,omitempty"`
	ObjectKey  string    `db:"object_key" json:"object_key"`
	ContentType string   `db:"content_type" json:"content_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	CapturedBy uuid.UUID `db:"captured_by" json:"captured_by"`
	CapturedAt time.Time `db:"captured_at" json:"captured_at"`
}
