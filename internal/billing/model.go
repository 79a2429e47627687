// Package billing issues and voids receipts for completed sessions.
package billing

import "time"

// Receipt is a payment record. Receipts are never deleted, only voided.
type Receipt struct {
	ID          int64      `json:"id"`
	OwnerUserID int64      `json:"-"`
	Number      string     `json:"number"`
	PatientID   int64      `json:"patient_id"`
	SessionIDs  []int64    `json:"session_ids"`
	AmountNis   int64      `json:"amount_nis"`
	AmountText  string     `json:"amount_text"`
	IssuedAt    time.Time  `json:"issued_at"`
	VoidedAt    *time.Time `json:"voided_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateReceiptRequest issues a receipt against a patient's sessions.
type CreateReceiptRequest struct {
	PatientID  int64   `json:"patient_id" validate:"required,gt=0"`
	SessionIDs []int64 `json:"session_ids" validate:"omitempty,dive,gt=0"`
	AmountNis  int64   `json:"amount_nis" validate:"required,gt=0"`
	IssuedAt   string  `json:"issued_at" validate:"omitempty"`
}

// ListReceiptsRequest filters the receipt listing.
type ListReceiptsRequest struct {
	PatientID     int64
	IncludeVoided bool
}
