package patients

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

// RepositoryPort defines data access methods for patient records.
type RepositoryPort interface {
	Create(ctx context.Context, scope shared.Scope, p Patient) (*Patient, error)
	Get(ctx context.Context, scope shared.Scope, id int64) (*Patient, error)
	List(ctx context.Context, scope shared.Scope, req ListPatientsRequest) ([]Patient, error)
	UpdateProfile(ctx context.Context, scope shared.Scope, id int64, req UpdatePatientRequest) (*Patient, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error
}

// TxRepositoryPort is the transactional slice of the repository used by
// lifecycle transitions. Ownership is re-verified by every method inside
// the same transaction that mutates, so a concurrent request cannot slip
// between check and act.
type TxRepositoryPort interface {
	GetForUpdate(ctx context.Context, scope shared.Scope, id int64) (*Patient, error)
	MarkInactive(ctx context.Context, scope shared.Scope, id int64, at time.Time, reason string) error
	MarkActive(ctx context.Context, scope shared.Scope, id int64, reason string) error
	CancelFutureSessions(ctx context.Context, scope shared.Scope, patientID int64, after time.Time) (int64, error)
	CancelOpenTasks(ctx context.Context, scope shared.Scope, patientID int64) (int64, error)
}

// Service handles patient records and lifecycle transitions.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create registers a new patient record under the caller's ownership.
func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreatePatientRequest) (*Patient, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	if req.FixedSessionTime != "" {
		if _, err := time.Parse("15:04", req.FixedSessionTime); err != nil {
			return nil, fmt.Errorf("%w: fixed_session_time must be HH:MM", httpx.ErrValidation)
		}
	}
	now := s.now()
	p := Patient{
		OwnerUserID:      scope.UserID,
		Code:             generateCode(),
		FullName:         strings.TrimSpace(req.FullName),
		Email:            req.Email,
		Phone:            req.Phone,
		Notes:            req.Notes,
		FixedSessionDay:  req.FixedSessionDay,
		FixedSessionTime: req.FixedSessionTime,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return s.repo.Create(ctx, scope, p)
}

// Get returns a single patient owned by the caller.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Patient, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.Get(ctx, scope, id)
}

// List returns the caller's patients sorted by name using Hebrew-aware
// collation, so mixed Hebrew and Latin names order the way the therapist
// expects. The full result set is sorted before the page is cut, so page
// boundaries follow collation order rather than byte order.
func (s *Service) List(ctx context.Context, scope shared.Scope, req ListPatientsRequest) ([]Patient, shared.Pagination, error) {
	if !scope.Valid() {
		return nil, shared.Pagination{}, httpx.ErrUnauthorized
	}
	items, err := s.repo.List(ctx, scope, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	c := collate.New(language.Hebrew)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(items[i].FullName, items[j].FullName) < 0
	})

	pagination := shared.NewPagination(req.Page, req.PerPage, len(items))
	start := (pagination.Page - 1) * pagination.PerPage
	if start > len(items) {
		start = len(items)
	}
	end := start + pagination.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], pagination, nil
}

// UpdateProfile edits a patient's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, scope shared.Scope, id int64, req UpdatePatientRequest) (*Patient, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	if req.FixedSessionTime != "" {
		if _, err := time.Parse("15:04", req.FixedSessionTime); err != nil {
			return nil, fmt.Errorf("%w: fixed_session_time must be HH:MM", httpx.ErrValidation)
		}
	}
	return s.repo.UpdateProfile(ctx, scope, id, req)
}

// SetInactive ends active care for a patient. The status flip and the
// optional cascades (cancel strictly-future sessions, close open tasks)
// commit atomically or not at all.
func (s *Service) SetInactive(ctx context.Context, scope shared.Scope, patientID int64, req SetInactiveRequest) (*StatusChangeResult, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	inactiveAt, err := parseWhen(req.InactiveAt)
	if err != nil {
		return nil, fmt.Errorf("%w: inactive_at: %s", httpx.ErrValidation, req.InactiveAt)
	}

	result := StatusChangeResult{Status: StatusInactive, PatientID: patientID}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		p, err := tx.GetForUpdate(ctx, scope, patientID)
		if err != nil {
			return err
		}
		if p.Status() == StatusInactive {
			return fmt.Errorf("%w: patient already inactive", httpx.ErrConflict)
		}
		if err := tx.MarkInactive(ctx, scope, patientID, inactiveAt, strings.TrimSpace(req.Reason)); err != nil {
			return err
		}
		if req.CancelFutureSessions {
			// Cutoff is strictly after the effective moment: a session at
			// the exact deactivation instant is left alone.
			n, err := tx.CancelFutureSessions(ctx, scope, patientID, inactiveAt)
			if err != nil {
				return err
			}
			result.CanceledSessionsCount = n
		}
		if req.CloseOpenTasks {
			n, err := tx.CancelOpenTasks(ctx, scope, patientID)
			if err != nil {
				return err
			}
			result.ClosedTasksCount = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Reactivate returns an inactive patient to active care. Sessions and
// tasks canceled by the earlier deactivation stay canceled; that was a
// business event, not reversible state.
func (s *Service) Reactivate(ctx context.Context, scope shared.Scope, patientID int64, req ReactivateRequest) (*StatusChangeResult, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	if _, err := parseWhen(req.ReactivatedAt); err != nil {
		return nil, fmt.Errorf("%w: reactivated_at: %s", httpx.ErrValidation, req.ReactivatedAt)
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reactivation reason is required", httpx.ErrValidation)
	}

	result := StatusChangeResult{Status: StatusActive, PatientID: patientID}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		p, err := tx.GetForUpdate(ctx, scope, patientID)
		if err != nil {
			return err
		}
		if p.Status() == StatusActive {
			return fmt.Errorf("%w: patient already active", httpx.ErrConflict)
		}
		return tx.MarkActive(ctx, scope, patientID, reason)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// parseWhen accepts either a full RFC3339 instant or a bare date.
func parseWhen(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func generateCode() string {
	id := uuid.New()
	return "PT-" + strings.ToUpper(id.String()[:8])
}
