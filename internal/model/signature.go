package model

import (
	"time"

	"github.com/google/uuid"
)

type SignatureKind string

const (
	SignatureKindProvider SignatureKind = "provider"
	SignatureKindPatient  SignatureKind = "patient"
	SignatureKindConsent  SignatureKind = "consent"
)

// Signature is a captured e-signature. The image itself lives in object
// storage; the row records who signed, when, and a SHA-256 of the image so
// tampering is detectable.
type Signature struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	TenantID   uuid.UUID     `db:"tenant_id" json:"tenant_id"`
	Kind       SignatureKind `db:"kind" json:"kind"`
	SignerID   *uuid.UUID    `db:"signer_id" json:"signer_id,omitempty"`
	SignerName string        `db:"signer_name" json:"signer_name"`
	ImageKey   string        `db:"image_key" json:"image_key"`
	ImageHash  string        `db:"image_hash" json:"image_hash"`
	SignedAt   time.Time     `db:"signed_at" json:"signed_at"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

type CaptureSignatureRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=provider patient consent"`
	SignerName string `json:"signer_name" validate:"required,max=255"`
	ImageData  string `json:"image_data" validate:"required"`
}
