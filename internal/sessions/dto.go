package sessions

// CreateSessionRequest books a session for a patient.
type CreateSessionRequest struct {
	PatientID   int64  `json:"patient_id" validate:"required,gt=0"`
	ScheduledAt string `json:"scheduled_at" validate:"required"`
	FeeNis      *int64 `json:"fee_nis" validate:"omitempty,gte=0"`
	Summary     string `json:"summary" validate:"omitempty,max=8000"`
}

// UpdateSessionRequest edits a session.
type UpdateSessionRequest struct {
	ScheduledAt string `json:"scheduled_at" validate:"required"`
	Status      string `json:"status" validate:"required"`
	FeeNis      *int64 `json:"fee_nis" validate:"omitempty,gte=0"`
	Summary     string `json:"summary" validate:"omitempty,max=8000"`
}

// DetectMergeRequest asks whether a candidate slot duplicates an existing
// session.
type DetectMergeRequest struct {
	PatientID int64  `json:"patient_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	Hour      int    `json:"hour" validate:"min=0,max=23"`
	Minute    int    `json:"minute" validate:"min=0,max=59"`
}

// MergeSessionsRequest collapses the secondary session into the primary.
type MergeSessionsRequest struct {
	PrimaryID   int64 `json:"primary_id" validate:"required,gt=0"`
	SecondaryID int64 `json:"secondary_id" validate:"required,gt=0"`
}

// ListSessionsRequest filters the session listing.
type ListSessionsRequest struct {
	PatientID int64
	From      string
	To        string
}
