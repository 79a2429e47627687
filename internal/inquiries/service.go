package inquiries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

// ConvertParams is the resolved input for a transactional conversion.
type ConvertParams struct {
	InquiryID        int64
	PatientCode      string
	FirstSessionAt   *time.Time
	FeeNis           *int64
	FixedSessionDay  *int
	FixedSessionTime string
	Now              time.Time
}

// RepositoryPort defines data access methods for inquiries.
type RepositoryPort interface {
	Create(ctx context.Context, scope shared.Scope, i Inquiry) (*Inquiry, error)
	Get(ctx context.Context, scope shared.Scope, id int64) (*Inquiry, error)
	List(ctx context.Context, scope shared.Scope, status Status) ([]Inquiry, error)
	Dismiss(ctx context.Context, scope shared.Scope, id int64, at time.Time) (*Inquiry, error)
	Convert(ctx context.Context, scope shared.Scope, params ConvertParams) (*ConvertResult, error)
}

// Service handles inquiry business logic.
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

// Create records an intake request.
func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateInquiryRequest) (*Inquiry, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	now := s.now()
	return s.repo.Create(ctx, scope, Inquiry{
		OwnerUserID: scope.UserID,
		FullName:    strings.TrimSpace(req.FullName),
		Email:       req.Email,
		Phone:       req.Phone,
		Source:      req.Source,
		Notes:       req.Notes,
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Get returns a single owned inquiry.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Inquiry, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.Get(ctx, scope, id)
}

// List returns the caller's inquiries, optionally filtered by status.
func (s *Service) List(ctx context.Context, scope shared.Scope, status string) ([]Inquiry, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	if status != "" {
		switch Status(status) {
		case StatusNew, StatusConverted, StatusDismissed:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
		}
	}
	return s.repo.List(ctx, scope, Status(status))
}

// Dismiss closes an inquiry without conversion.
func (s *Service) Dismiss(ctx context.Context, scope shared.Scope, id int64) (*Inquiry, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	inquiry, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if inquiry.Status != StatusNew {
		return nil, fmt.Errorf("%w: inquiry already %s", httpx.ErrConflict, inquiry.Status)
	}
	return s.repo.Dismiss(ctx, scope, id, s.now())
}

// Convert turns a NEW inquiry into a patient record, optionally booking
// the first session, in one transaction.
func (s *Service) Convert(ctx context.Context, scope shared.Scope, id int64, req ConvertRequest) (*ConvertResult, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	params := ConvertParams{
		InquiryID:        id,
		PatientCode:      "PT-" + strings.ToUpper(uuid.New().String()[:8]),
		FeeNis:           req.FeeNis,
		FixedSessionDay:  req.FixedSessionDay,
		FixedSessionTime: req.FixedSessionTime,
		Now:              s.now(),
	}
	if req.FirstSessionAt != "" {
		at, err := time.Parse(time.RFC3339, req.FirstSessionAt)
		if err != nil {
			return nil, fmt.Errorf("%w: first_session_at must be RFC3339", httpx.ErrValidation)
		}
		params.FirstSessionAt = &at
	}
	if req.FixedSessionTime != "" {
		if _, err := time.Parse("15:04", req.FixedSessionTime); err != nil {
			return nil, fmt.Errorf("%w: fixed_session_time must be HH:MM", httpx.ErrValidation)
		}
	}
	return s.repo.Convert(ctx, scope, params)
}
