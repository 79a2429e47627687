package inquiries

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

type memoryRepo struct {
	inquiries     map[int64]*Inquiry
	nextID        int64
	nextPatientID int64
	nextSessionID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{inquiries: make(map[int64]*Inquiry)}
}

func (r *memoryRepo) Create(ctx context.Context, scope shared.Scope, i Inquiry) (*Inquiry, error) {
	r.nextID++
	i.ID = r.nextID
	r.inquiries[i.ID] = &i
	out := i
	return &out, nil
}

func (r *memoryRepo) Get(ctx context.Context, scope shared.Scope, id int64) (*Inquiry, error) {
	i, ok := r.inquiries[id]
	if !ok || i.OwnerUserID != scope.UserID {
		return nil, httpx.ErrNotFound
	}
	out := *i
	return &out, nil
}

func (r *memoryRepo) List(ctx context.Context, scope shared.Scope, status Status) ([]Inquiry, error) {
	var items []Inquiry
	for _, i := range r.inquiries {
		if i.OwnerUserID != scope.UserID {
			continue
		}
		if status != "" && i.Status != status {
			continue
		}
		items = append(items, *i)
	}
	return items, nil
}

func (r *memoryRepo) Dismiss(ctx context.Context, scope shared.Scope, id int64, at time.Time) (*Inquiry, error) {
	i, ok := r.inquiries[id]
	if !ok || i.OwnerUserID != scope.UserID {
		return nil, httpx.ErrNotFound
	}
	i.Status = StatusDismissed
	out := *i
	return &out, nil
}

func (r *memoryRepo) Convert(ctx context.Context, scope shared.Scope, params ConvertParams) (*ConvertResult, error) {
	i, ok := r.inquiries[params.InquiryID]
	if !ok || i.OwnerUserID != scope.UserID {
		return nil, httpx.ErrNotFound
	}
	if i.Status != StatusNew {
		return nil, fmt.Errorf("%w: inquiry already %s", httpx.ErrConflict, i.Status)
	}
	r.nextPatientID++
	pid := r.nextPatientID
	i.Status = StatusConverted
	i.PatientID = &pid
	result := &ConvertResult{
		InquiryID: i.ID,
		PatientID: pid,
		Code:      params.PatientCode,
	}
	if params.FirstSessionAt != nil {
		r.nextSessionID++
		id := r.nextSessionID
		result.SessionID = &id
	}
	return result, nil
}

func testScope() shared.Scope {
	return shared.Scope{UserID: 1, Role: shared.RoleTherapist}
}

func seedInquiry(t *testing.T, svc *Service) *Inquiry {
	t.Helper()
	i, err := svc.Create(context.Background(), testScope(), CreateInquiryRequest{
		FullName: "Avi Cohen",
		Phone:    "050-1234567",
		Source:   "referral",
	})
	require.NoError(t, err)
	require.Equal(t, StatusNew, i.Status)
	return i
}

func TestConvertCreatesPatient(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	i := seedInquiry(t, svc)

	result, err := svc.Convert(context.Background(), testScope(), i.ID, ConvertRequest{})
	require.NoError(t, err)
	require.Equal(t, i.ID, result.InquiryID)
	require.NotZero(t, result.PatientID)
	require.Regexp(t, `^PT-[0-9A-F]{8}$`, result.Code)
	require.Nil(t, result.SessionID)
	require.Equal(t, StatusConverted, repo.inquiries[i.ID].Status)
}

func TestConvertWithFirstSession(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	i := seedInquiry(t, svc)

	result, err := svc.Convert(context.Background(), testScope(), i.ID, ConvertRequest{
		FirstSessionAt: "2026-03-10T16:30:00Z",
	})
	require.NoError(t, err)
	require.NotNil(t, result.SessionID)
}

func TestConvertTwiceConflicts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	i := seedInquiry(t, svc)

	_, err := svc.Convert(context.Background(), testScope(), i.ID, ConvertRequest{})
	require.NoError(t, err)

	_, err = svc.Convert(context.Background(), testScope(), i.ID, ConvertRequest{})
	require.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestConvertRejectsBadFirstSession(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	i := seedInquiry(t, svc)

	_, err := svc.Convert(context.Background(), testScope(), i.ID, ConvertRequest{
		FirstSessionAt: "tomorrow at noon",
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestDismissOnlyNew(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	i := seedInquiry(t, svc)

	dismissed, err := svc.Dismiss(context.Background(), testScope(), i.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDismissed, dismissed.Status)

	_, err = svc.Dismiss(context.Background(), testScope(), i.ID)
	require.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestListRejectsUnknownStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, err := svc.List(context.Background(), testScope(), "PENDING")
	require.True(t, errors.Is(err, httpx.ErrValidation))
}
