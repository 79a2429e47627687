package tasks

// CreateTaskRequest adds a task, optionally linked to a patient or session.
type CreateTaskRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=300"`
	PatientID *int64 `json:"patient_id" validate:"omitempty,gt=0"`
	SessionID *int64 `json:"session_id" validate:"omitempty,gt=0"`
	DueAt     string `json:"due_at" validate:"omitempty"`
}

// UpdateTaskRequest edits a task's title and due date.
type UpdateTaskRequest struct {
	Title string `json:"title" validate:"required,min=1,max=300"`
	DueAt string `json:"due_at" validate:"omitempty"`
}

// SetStatusRequest moves a task between OPEN, DONE and CANCELED.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListTasksRequest filters the task listing.
type ListTasksRequest struct {
	Status    string
	PatientID int64
	DueBefore string
}
