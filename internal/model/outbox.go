package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxEvent is written in the same transaction as the domain change it
// describes; the worker publishes pending rows to the broker.
type OutboxEvent struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	EventType   string          `db:"event_type" json:"event_type"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	Status      OutboxStatus    `db:"status" json:"status"`
	Error       *string         `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// Event types published through the outbox.
const (
	EventVisitSigned              = "VISIT_SIGNED"
	EventVisitSubmitted           = "VISIT_SUBMITTED"
	EventVisitApproved            = "VISIT_APPROVED"
	EventVisitCorrectionRequested = "VISIT_CORRECTION_REQUESTED"
	EventVisitVoided              = "VISIT_VOIDED"
	EventPatientCreated           = "PATIENT_CREATED"
	EventWoundCreated             = "WOUND_CREATED"
)
