package patients

// CreatePatientRequest is the payload for creating a patient record.
type CreatePatientRequest struct {
	FullName         string `json:"full_name" validate:"required,min=2,max=120"`
	Email            string `json:"email" validate:"omitempty,email"`
	Phone            string `json:"phone" validate:"omitempty,max=32"`
	Notes            string `json:"notes" validate:"omitempty,max=4000"`
	FixedSessionDay  *int   `json:"fixed_session_day" validate:"omitempty,min=0,max=6"`
	FixedSessionTime string `json:"fixed_session_time" validate:"omitempty,len=5"`
}

// UpdatePatientRequest is the payload for editing a patient profile.
type UpdatePatientRequest struct {
	FullName         string `json:"full_name" validate:"required,min=2,max=120"`
	Email            string `json:"email" validate:"omitempty,email"`
	Phone            string `json:"phone" validate:"omitempty,max=32"`
	Notes            string `json:"notes" validate:"omitempty,max=4000"`
	FixedSessionDay  *int   `json:"fixed_session_day" validate:"omitempty,min=0,max=6"`
	FixedSessionTime string `json:"fixed_session_time" validate:"omitempty,len=5"`
}

// SetInactiveRequest ends active care for a patient.
type SetInactiveRequest struct {
	InactiveAt           string `json:"inactive_at" validate:"required"`
	Reason               string `json:"reason" validate:"omitempty,max=1000"`
	CancelFutureSessions bool   `json:"cancel_future_sessions"`
	CloseOpenTasks       bool   `json:"close_open_tasks"`
}

// ReactivateRequest returns an inactive patient to active care. The reason
// is mandatory here, unlike deactivation: resuming care must be justified
// in writing.
type ReactivateRequest struct {
	ReactivatedAt string `json:"reactivated_at" validate:"required"`
	Reason        string `json:"reason" validate:"required,max=1000"`
}

// ListPatientsRequest filters the patient listing.
type ListPatientsRequest struct {
	IncludeInactive bool
	Search          string
	Page            int
	PerPage         int
}
