// Package guidance logs supervision ("hadracha") meetings the therapist
// attends, optionally referencing the patients discussed.
package guidance

import "time"

// Entry is one supervision meeting record.
type Entry struct {
	ID          int64     `json:"id"`
	OwnerUserID int64     `json:"-"`
	Supervisor  string    `json:"supervisor"`
	HeldAt      time.Time `json:"held_at"`
	Topic       string    `json:"topic,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	PatientIDs  []int64   `json:"patient_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateEntryRequest records a supervision meeting.
type CreateEntryRequest struct {
	Supervisor string  `json:"supervisor" validate:"required,min=2,max=120"`
	HeldAt     string  `json:"held_at" validate:"required"`
	Topic      string  `json:"topic" validate:"omitempty,max=300"`
	Notes      string  `json:"notes" validate:"omitempty,max=8000"`
	PatientIDs []int64 `json:"patient_ids" validate:"omitempty,dive,gt=0"`
}

// UpdateEntryRequest edits a supervision meeting record.
type UpdateEntryRequest struct {
	Supervisor string  `json:"supervisor" validate:"required,min=2,max=120"`
	HeldAt     string  `json:"held_at" validate:"required"`
	Topic      string  `json:"topic" validate:"omitempty,max=300"`
	Notes      string  `json:"notes" validate:"omitempty,max=8000"`
	PatientIDs []int64 `json:"patient_ids" validate:"omitempty,dive,gt=0"`
}
