package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

// RepositoryPort defines data access methods for sessions.
type RepositoryPort interface {
	Create(ctx context.Context, scope shared.Scope, s Session) (*Session, error)
	CreateBatch(ctx context.Context, scope shared.Scope, items []Session) ([]Session, error)
	Get(ctx context.Context, scope shared.Scope, id int64) (*Session, error)
	List(ctx context.Context, scope shared.Scope, patientID int64, from, to time.Time) ([]Session, error)
	Update(ctx context.Context, scope shared.Scope, s Session) (*Session, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error
}

// TxRepositoryPort is the transactional slice used by the merge operation.
type TxRepositoryPort interface {
	GetForUpdate(ctx context.Context, scope shared.Scope, id int64) (*Session, error)
	DetachTasks(ctx context.Context, scope shared.Scope, sessionID int64) (int64, error)
	Delete(ctx context.Context, scope shared.Scope, id int64) error
}

// PatientDirectory is the read access to patient records the session
// service needs for slot configuration and lifecycle checks.
type PatientDirectory interface {
	Get(ctx context.Context, scope shared.Scope, id int64) (*patients.Patient, error)
}

// Service handles session business logic.
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

// Create books a session. Archived patients cannot take new sessions.
func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateSessionRequest) (*Session, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled_at must be RFC3339", httpx.ErrValidation)
	}
	patient, err := s.patients.Get(ctx, scope, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Status() == patients.StatusInactive {
		return nil, fmt.Errorf("%w: patient is inactive", httpx.ErrValidation)
	}

	now := s.now()
	return s.repo.Create(ctx, scope, Session{
		OwnerUserID: scope.UserID,
		PatientID:   req.PatientID,
		ScheduledAt: scheduledAt,
		Status:      StatusScheduled,
		FeeNis:      req.FeeNis,
		Summary:     req.Summary,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Get returns a single owned session.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Session, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.Get(ctx, scope, id)
}

// List returns sessions in a date range, optionally for one patient.
func (s *Service) List(ctx context.Context, scope shared.Scope, req ListSessionsRequest) ([]Session, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	from, to, err := parseRange(req.From, req.To, s.now())
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope, req.PatientID, from, to)
}

// Update applies an explicit edit to a session's schedule, status and fee.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, req UpdateSessionRequest) (*Session, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled_at must be RFC3339", httpx.ErrValidation)
	}
	status := Status(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, req.Status)
	}

	current, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	current.ScheduledAt = scheduledAt
	current.Status = status
	current.FeeNis = req.FeeNis
	current.Summary = req.Summary
	current.UpdatedAt = s.now()
	return s.repo.Update(ctx, scope, *current)
}

// GenerateRecurring runs the recurring planner for a patient and persists
// the resulting dates as auto-generated occurrences.
func (s *Service) GenerateRecurring(ctx context.Context, scope shared.Scope, patientID int64) (*GenerationPlan, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	patient, err := s.patients.Get(ctx, scope, patientID)
	if err != nil {
		return nil, err
	}
	if patient.Status() == patients.StatusInactive {
		return nil, fmt.Errorf("%w: patient is inactive", httpx.ErrValidation)
	}

	now := s.now()
	existing, err := s.repo.List(ctx, scope, patientID, now.AddDate(0, 0, -1), now.AddDate(0, 0, recurringHorizonDays+1))
	if err != nil {
		return nil, err
	}

	plan := PlanRecurring(patient, existing, now)
	if len(plan.Dates) == 0 {
		return &plan, nil
	}

	items := make([]Session, 0, len(plan.Dates))
	for _, at := range plan.Dates {
		items = append(items, Session{
			OwnerUserID:         scope.UserID,
			PatientID:           patientID,
			ScheduledAt:         at,
			Status:              StatusScheduled,
			IsRecurringTemplate: true,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}
	if _, err := s.repo.CreateBatch(ctx, scope, items); err != nil {
		return nil, err
	}
	return &plan, nil
}

// DetectMerge runs duplicate detection for a candidate booking. Advisory
// only; nothing is written.
func (s *Service) DetectMerge(ctx context.Context, scope shared.Scope, req DetectMergeRequest) (*MergeSuggestion, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	patient, err := s.patients.Get(ctx, scope, req.PatientID)
	if err != nil {
		return nil, err
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", httpx.ErrValidation, req.Date)
	}
	existing, err := s.repo.List(ctx, scope, req.PatientID, day.AddDate(0, 0, -7), day.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}
	return DetectMerge(req.Date, req.Hour, req.Minute, patient, existing)
}

// Merge collapses the secondary session into the primary. The primary
// keeps its id and data; the secondary row is deleted. Records attached
// only to the secondary are not reassigned.
func (s *Service) Merge(ctx context.Context, scope shared.Scope, primaryID, secondaryID int64) (*MergeResult, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	if primaryID == secondaryID {
		return nil, fmt.Errorf("%w: cannot merge a session with itself", httpx.ErrValidation)
	}

	var detached int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		primary, err := tx.GetForUpdate(ctx, scope, primaryID)
		if err != nil {
			return err
		}
		secondary, err := tx.GetForUpdate(ctx, scope, secondaryID)
		if err != nil {
			return err
		}
		if primary.PatientID != secondary.PatientID {
			return fmt.Errorf("%w: sessions belong to different patients", httpx.ErrValidation)
		}
		// Tasks pointing at the secondary keep their patient link but lose
		// the session reference, so the row can be deleted.
		detached, err = tx.DetachTasks(ctx, scope, secondaryID)
		if err != nil {
			return err
		}
		return tx.Delete(ctx, scope, secondaryID)
	})
	if err != nil {
		return nil, err
	}
	return &MergeResult{Merged: true, Kept: primaryID, Deleted: secondaryID, DetachedTasks: detached}, nil
}

func parseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start := now.AddDate(0, -1, 0)
	end := now.AddDate(0, 3, 0)
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from %q", httpx.ErrValidation, from)
		}
		start = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to %q", httpx.ErrValidation, to)
		}
		end = t.AddDate(0, 0, 1)
	}
	return start, end, nil
}
