// Package sessions manages clinical appointments: manual scheduling,
// recurring generation from a patient's fixed weekly slot, and merging of
// duplicate bookings.
package sessions

import "time"

// Status of a session. Status only moves forward in the normal flow;
// an explicit edit is the only way back.
type Status string

const (
	StatusScheduled    Status = "SCHEDULED"
	StatusCompleted    Status = "COMPLETED"
	StatusCanceledLate Status = "CANCELED_LATE"
	StatusCanceled     Status = "CANCELED"
	StatusUndocumented Status = "UNDOCUMENTED"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCanceledLate, StatusCanceled, StatusUndocumented:
		return true
	}
	return false
}

// Session is one scheduled or completed clinical appointment.
type Session struct {
	ID          int64     `json:"id"`
	OwnerUserID int64     `json:"-"`
	PatientID   int64     `json:"patient_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      Status    `json:"status"`
	FeeNis      *int64    `json:"fee_nis,omitempty"`
	Summary     string    `json:"summary,omitempty"`

	// IsRecurringTemplate marks occurrences produced by the recurring
	// generator rather than booked by hand.
	IsRecurringTemplate bool `json:"is_recurring_template"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MergeResult reports the outcome of collapsing two sessions into one.
type MergeResult struct {
	Merged        bool  `json:"merged"`
	Kept          int64 `json:"kept"`
	Deleted       int64 `json:"deleted"`
	DetachedTasks int64 `json:"detached_tasks"`
}
