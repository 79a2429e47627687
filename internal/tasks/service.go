package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	Create(ctx context.Context, scope shared.Scope, t Task) (*Task, error)
	Get(ctx context.Context, scope shared.Scope, id int64) (*Task, error)
	List(ctx context.Context, scope shared.Scope, req ListTasksRequest) ([]Task, error)
	Update(ctx context.Context, scope shared.Scope, t Task) (*Task, error)
}

// PatientDirectory provides the lifecycle check for patient-linked tasks.
type PatientDirectory interface {
	Get(ctx context.Context, scope shared.Scope, id int64) (*patients.Patient, error)
}

// Service handles task business logic.
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

// Create adds an OPEN task. Tasks cannot target archived patients.
func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateTaskRequest) (*Task, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	var dueAt *time.Time
	if req.DueAt != "" {
		t, err := time.Parse("2006-01-02", req.DueAt)
		if err != nil {
			return nil, fmt.Errorf("%w: due_at must be YYYY-MM-DD", httpx.ErrValidation)
		}
		dueAt = &t
	}
	if req.PatientID != nil {
		patient, err := s.patients.Get(ctx, scope, *req.PatientID)
		if err != nil {
			return nil, err
		}
		if patient.Status() == patients.StatusInactive {
			return nil, fmt.Errorf("%w: patient is inactive", httpx.ErrValidation)
		}
	}

	now := s.now()
	return s.repo.Create(ctx, scope, Task{
		OwnerUserID: scope.UserID,
		Title:       strings.TrimSpace(req.Title),
		Status:      StatusOpen,
		PatientID:   req.PatientID,
		SessionID:   req.SessionID,
		DueAt:       dueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Get returns a single owned task.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Task, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.Get(ctx, scope, id)
}

// List returns the caller's tasks.
func (s *Service) List(ctx context.Context, scope shared.Scope, req ListTasksRequest) ([]Task, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	if req.Status != "" && !Status(req.Status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, req.Status)
	}
	return s.repo.List(ctx, scope, req)
}

// Update edits a task's title and due date.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req UpdateTaskRequest) (*Task, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	task, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	task.Title = strings.TrimSpace(req.Title)
	if req.DueAt != "" {
		t, err := time.Parse("2006-01-02", req.DueAt)
		if err != nil {
			return nil, fmt.Errorf("%w: due_at must be YYYY-MM-DD", httpx.ErrValidation)
		}
		task.DueAt = &t
	} else {
		task.DueAt = nil
	}
	task.UpdatedAt = s.now()
	return s.repo.Update(ctx, scope, *task)
}

// SetStatus moves a task to a new status, keeping the completed_at
// invariant: set exactly when the task is DONE.
func (s *Service) SetStatus(ctx context.Context, scope shared.Scope, id int64, req SetStatusRequest) (*Task, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	status := Status(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, req.Status)
	}

	task, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	task.Status = status
	if status == StatusDone {
		done := s.now()
		task.CompletedAt = &done
	} else {
		task.CompletedAt = nil
	}
	task.UpdatedAt = s.now()
	return s.repo.Update(ctx, scope, *task)
}
