package billing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

// RepositoryPort defines data access methods for receipts.
type RepositoryPort interface {
	Create(ctx context.Context, scope shared.Scope, r Receipt) (*Receipt, error)
	Get(ctx context.Context, scope shared.Scope, id int64) (*Receipt, error)
	List(ctx context.Context, scope shared.Scope, req ListReceiptsRequest) ([]Receipt, error)
	Void(ctx context.Context, scope shared.Scope, id int64, at time.Time) (*Receipt, error)
	NextNumber(ctx context.Context, scope shared.Scope, year int) (string, error)
}

// PatientDirectory provides the lifecycle check for receipt targets.
type PatientDirectory interface {
	Get(ctx context.Context, scope shared.Scope, id int64) (*patients.Patient, error)
}

// Service handles billing business logic.
type Service struct {
	repo     RepositoryPort
	patients PatientDirectory
	printer  *message.Printer
	now      func() time.Time
}

// NewService builds Service instance. Amounts are rendered with a
// Hebrew-locale printer so the grouping and currency mark match what the
// therapist prints on paper receipts.
func NewService(repo RepositoryPort, directory PatientDirectory) *Service {
	return &Service{
		repo:     repo,
		patients: directory,
		printer:  message.NewPrinter(language.Hebrew),
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create issues a receipt. Archived patients cannot receive new receipts.
func (s *Service) Create(ctx context.Context, scope shared.Scope, req CreateReceiptRequest) (*Receipt, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	patient, err := s.patients.Get(ctx, scope, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Status() == patients.StatusInactive {
		return nil, fmt.Errorf("%w: patient is inactive", httpx.ErrValidation)
	}

	issuedAt := s.now()
	if req.IssuedAt != "" {
		t, err := time.Parse("2006-01-02", req.IssuedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: issued_at must be YYYY-MM-DD", httpx.ErrValidation)
		}
		issuedAt = t
	}

	number, err := s.repo.NextNumber(ctx, scope, issuedAt.Year())
	if err != nil {
		return nil, err
	}

	now := s.now()
	return s.repo.Create(ctx, scope, Receipt{
		OwnerUserID: scope.UserID,
		Number:      number,
		PatientID:   req.PatientID,
		SessionIDs:  req.SessionIDs,
		AmountNis:   req.AmountNis,
		AmountText:  s.printer.Sprintf("%d ₪", req.AmountNis),
		IssuedAt:    issuedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Get returns a single owned receipt.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (*Receipt, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.Get(ctx, scope, id)
}

// List returns the caller's receipts, voided ones excluded by default.
func (s *Service) List(ctx context.Context, scope shared.Scope, req ListReceiptsRequest) ([]Receipt, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	return s.repo.List(ctx, scope, req)
}

// Void marks a receipt void. Voiding twice is a conflict.
func (s *Service) Void(ctx context.Context, scope shared.Scope, id int64) (*Receipt, error) {
	if !scope.Valid() {
		return nil, httpx.ErrUnauthorized
	}
	receipt, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if receipt.VoidedAt != nil {
		return nil, fmt.Errorf("%w: receipt already voided", httpx.ErrConflict)
	}
	return s.repo.Void(ctx, scope, id, s.now())
}
