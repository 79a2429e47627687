// Package patients holds patient records and the lifecycle engine that
// moves them between active and inactive care.
package patients

import "time"

// LifecycleStatus describes whether a patient is in active care.
type LifecycleStatus string

const (
	StatusActive   LifecycleStatus = "ACTIVE"
	StatusInactive LifecycleStatus = "INACTIVE"
)

// Patient is a clinical record owned by exactly one therapist account.
// Patients are never hard-deleted; ArchivedAt set means inactive.
type Patient struct {
	ID          int64      `json:"id"`
	OwnerUserID int64      `json:"-"`
	Code        string     `json:"code"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Notes       string     `json:"notes,omitempty"`

	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	InactiveReason string     `json:"inactive_reason,omitempty"`

	// Fixed weekly slot. Day uses the 0=Sunday..6=Saturday convention;
	// Time is "HH:MM". Both optional.
	FixedSessionDay  *int   `json:"fixed_session_day,omitempty"`
	FixedSessionTime string `json:"fixed_session_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status derives the lifecycle status from the archival marker.
func (p *Patient) Status() LifecycleStatus {
	if p.ArchivedAt != nil {
		return StatusInactive
	}
	return StatusActive
}

// HasFixedSlot reports whether the patient has a standing weekly appointment.
func (p *Patient) HasFixedSlot() bool {
	return p.FixedSessionDay != nil
}

// StatusChangeResult reports the outcome of a lifecycle transition,
// including how many dependent records the cascade touched.
type StatusChangeResult struct {
	Status                LifecycleStatus `json:"status"`
	PatientID             int64           `json:"patient_id"`
	CanceledSessionsCount int64           `json:"canceled_sessions_count"`
	ClosedTasksCount      int64           `json:"closed_tasks_count"`
}
