package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

// RepositoryPort defines data access methods for notes.
type RepositoryPort interface {
	Create(ctx context.Context, scope shared.Scope, n Note) (*Note, error)
	Get(ctx context.Context, scope shared.Scope, id int64) (*Note, error)
	List(ctx context.Context, scope shared.Scope, req ListNotesRequest) ([]Note, error)
	Update(ctx context.Context, scope shared.Scope, n Note) (*Note, error)
	Delete(ctx context.Context, scope shared.Scope, id int64) error
}

// PatientDirectory verifies note links target active, owned patients.
type PatientDirectory interface {
	Get(ctx context.Context, scope shared.Scope, id int64) (*patients.Patient, error)
}

// Service handles note business logic.
type Service struct {
	repo     RepositoryPort
	patients PatientDirectory
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, directory PatientDirectory) *Service {
	return &Service{repo: repo, patients: directory, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create saves a new note. Links to archived patients are rejected.
func (s *Service) Create(ctx context.Context, scope shared.Scope, req SaveNoteRequest) (*Note, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	if err := s.checkPatients(ctx, scope, req.PatientIDs); err != nil {
		return nil, err
	}

	now := s.now()
	return s.repo.Create(ctx, scope, Note{
		OwnerUserID: scope.UserID,
		Title:       strings.TrimSpace(req.Title),
		Body:        req.Body,
		Tags:        normalizeTags(req.Tags),
		PatientIDs:  req.PatientIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Get returns a single owned note.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Note, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.Get(ctx, scope, id)
}

// List returns the caller's notes.
func (s *Service) List(ctx context.Context, scope shared.Scope, req ListNotesRequest) ([]Note, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.List(ctx, scope, req)
}

// Update rewrites a note.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req SaveNoteRequest) (*Note, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	if err := s.checkPatients(ctx, scope, req.PatientIDs); err != nil {
		return nil, err
	}

	note, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	note.Title = strings.TrimSpace(req.Title)
	note.Body = req.Body
	note.Tags = normalizeTags(req.Tags)
	note.PatientIDs = req.PatientIDs
	note.UpdatedAt = s.now()
	return s.repo.Update(ctx, scope, *note)
}

// Delete removes a note.
func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if !scope.Valid() {
		return httpx.ErrUnauthorized
	}
	return s.repo.Delete(ctx, scope, id)
}

func (s *Service) checkPatients(ctx context.Context, scope shared.Scope, ids []int64) error {
	for _, id := range ids {
		patient, err := s.patients.Get(ctx, scope, id)
		if err != nil {
			return err
		}
		if patient.Status() == patients.StatusInactive {
			return fmt.Errorf("%w: patient %d is inactive", httpx.ErrValidation, id)
		}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
