package guidance

import (
	"context"
	"fmt"
	"time"

	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

// RepositoryPort defines data access methods for guidance entries.
type RepositoryPort interface {
	Create(ctx context.Context, scope shared.Scope, e Entry) (*Entry, error)
	Get(ctx context.Context, scope shared.Scope, id int64) (*Entry, error)
	List(ctx context.Context, scope shared.Scope) ([]Entry, error)
	Update(ctx context.Context, scope shared.Scope, e Entry) (*Entry, error)
	Delete(ctx context.Context, scope shared.Scope, id int64) error
}

// PatientDirectory verifies referenced patients exist and are active.
type PatientDirectory interface {
	Get(ctx context.Context, scope shared.Scope, id int64) (*patients.Patient, error)
}

// Service handles guidance business logic.
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

// Create records a supervision meeting.
func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateEntryRequest) (*Entry, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	heldAt, err := time.Parse("2006-01-02", req.HeldAt)
	if err != nil {
		return nil, fmt.Errorf("%w: held_at must be YYYY-MM-DD", httpx.ErrValidation)
	}
	if err := s.checkPatients(ctx, scope, req.PatientIDs); err != nil {
		return nil, err
	}

	now := s.now()
	return s.repo.Create(ctx, scope, Entry{
		OwnerUserID: scope.UserID,
		Supervisor:  req.Supervisor,
		HeldAt:      heldAt,
		Topic:       req.Topic,
		Notes:       req.Notes,
		PatientIDs:  req.PatientIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Get returns a single owned entry.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Entry, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.Get(ctx, scope, id)
}

// List returns the caller's supervision log.
func (s *Service) List(ctx context.Context, scope shared.Scope) ([]Entry, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.List(ctx, scope)
}

// Update edits a supervision meeting record.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req UpdateEntryRequest) (*Entry, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	heldAt, err := time.Parse("2006-01-02", req.HeldAt)
	if err != nil {
		return nil, fmt.Errorf("%w: held_at must be YYYY-MM-DD", httpx.ErrValidation)
	}
	if err := s.checkPatients(ctx, scope, req.PatientIDs); err != nil {
		return nil, err
	}

	entry, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	entry.Supervisor = req.Supervisor
	entry.HeldAt = heldAt
	entry.Topic = req.Topic
	entry.Notes = req.Notes
	entry.PatientIDs = req.PatientIDs
	entry.UpdatedAt = s.now()
	return s.repo.Update(ctx, scope, *entry)
}

// Delete removes a supervision meeting record.
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
