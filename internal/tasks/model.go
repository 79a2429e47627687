// Package tasks manages the therapist's to-do list, optionally tied to a
// patient or a session.
package tasks

import "time"

// Status of a task.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusDone     Status = "DONE"
	StatusCanceled Status = "CANCELED"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// Task is one to-do item. CompletedAt is set if and only if the status is
// DONE.
type Task struct {
	ID          int64      `json:"id"`
	OwnerUserID int64      `json:"-"`
	Title       string     `json:"title"`
	Status      Status     `json:"status"`
	PatientID   *int64     `json:"patient_id,omitempty"`
	SessionID   *int64     `json:"session_id,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
