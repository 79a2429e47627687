// Package inquiries tracks intake requests from prospective patients and
// their conversion into patient records.
package inquiries

import "time"

// Status of an inquiry.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusConverted Status = "CONVERTED"
	StatusDismissed Status = "DISMISSED"
)

// Inquiry is one intake request.
type Inquiry struct {
	ID          int64     `json:"id"`
	OwnerUserID int64     `json:"-"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Source      string    `json:"source,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Status      Status    `json:"status"`
	PatientID   *int64    `json:"patient_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInquiryRequest records an intake request.
type CreateInquiryRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Source   string `json:"source" validate:"omitempty,max=120"`
	Notes    string `json:"notes" validate:"omitempty,max=4000"`
}

// ConvertRequest turns an inquiry into a patient, optionally booking the
// first session at the same time.
type ConvertRequest struct {
	FirstSessionAt   string `json:"first_session_at" validate:"omitempty"`
	FeeNis           *int64 `json:"fee_nis" validate:"omitempty,gte=0"`
	FixedSessionDay  *int   `json:"fixed_session_day" validate:"omitempty,min=0,max=6"`
	FixedSessionTime string `json:"fixed_session_time" validate:"omitempty,len=5"`
}

// ConvertResult reports the records created by a conversion.
type ConvertResult struct {
	InquiryID int64  `json:"inquiry_id"`
	PatientID int64  `json:"patient_id"`
	Code      string `json:"patient_code"`
	SessionID *int64 `json:"session_id,omitempty"`
}
