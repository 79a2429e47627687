// Package notes is the research-note workspace: free-form documents with
// tags and optional links to the patients they concern.
package notes

import "time"

// Note is one workspace document.
type Note struct {
	ID          int64     `json:"id"`
	OwnerUserID int64     `json:"-"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PatientIDs  []int64   `json:"patient_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SaveNoteRequest creates or rewrites a note.
type SaveNoteRequest struct {
	Title      string   `json:"title" validate:"required,min=1,max=300"`
	Body       string   `json:"body" validate:"omitempty,max=100000"`
	Tags       []string `json:"tags" validate:"omitempty,dive,min=1,max=60"`
	PatientIDs []int64  `json:"patient_ids" validate:"omitempty,dive,gt=0"`
}

// ListNotesRequest filters the note listing.
type ListNotesRequest struct {
	Tag       string
	PatientID int64
	Search    string
}
