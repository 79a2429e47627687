package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

type memoryRepo struct {
	tasks  map[int64]*Task
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{tasks: make(map[int64]*Task)}
}

func (r *memoryRepo) Create(ctx context.Context, scope shared.Scope, t Task) (*Task, error) {
	r.nextID++
	t.ID = r.nextID
	r.tasks[t.ID] = &t
	out := t
	return &out, nil
}

func (r *memoryRepo) Get(ctx context.Context, scope shared.Scope, id int64) (*Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.OwnerUserID != scope.UserID {
		return nil, httpx.ErrNotFound
	}
	out := *t
	return &out, nil
}

func (r *memoryRepo) List(ctx context.Context, scope shared.Scope, req ListTasksRequest) ([]Task, error) {
	var items []Task
	for _, t := range r.tasks {
		if t.OwnerUserID != scope.UserID {
			continue
		}
		if req.Status != "" && t.Status != Status(req.Status) {
			continue
		}
		items = append(items, *t)
	}
	return items, nil
}

func (r *memoryRepo) Update(ctx context.Context, scope shared.Scope, t Task) (*Task, error) {
	if _, err := r.Get(ctx, scope, t.ID); err != nil {
		return nil, err
	}
	r.tasks[t.ID] = &t
	out := t
	return &out, nil
}

type memoryDirectory struct {
	patients map[int64]*patients.Patient
}

func (d *memoryDirectory) Get(ctx context.Context, scope shared.Scope, id int64) (*patients.Patient, error) {
	p, ok := d.patients[id]
	if !ok || p.OwnerUserID != scope.UserID {
		return nil, httpx.ErrNotFound
	}
	out := *p
	return &out, nil
}

func testScope() shared.Scope {
	return shared.Scope{UserID: 1, Role: shared.RoleTherapist}
}

func newTestService() (*Service, *memoryRepo, *memoryDirectory) {
	repo := newMemoryRepo()
	dir := &memoryDirectory{patients: map[int64]*patients.Patient{
		42: {ID: 42, OwnerUserID: 1, Code: "PT-TEST0001", FullName: "Avi Cohen"},
	}}
	return NewService(repo, dir), repo, dir
}

func TestSetStatusDoneSetsCompletedAt(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	task, err := svc.Create(ctx, testScope(), CreateTaskRequest{Title: "write session summary"})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, task.Status)
	require.Nil(t, task.CompletedAt)

	done := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return done })

	task, err = svc.SetStatus(ctx, testScope(), task.ID, SetStatusRequest{Status: "DONE"})
	require.NoError(t, err)
	require.Equal(t, StatusDone, task.Status)
	require.NotNil(t, task.CompletedAt)
	require.Equal(t, done, *task.CompletedAt)

	// Reopening clears the completion timestamp.
	task, err = svc.SetStatus(ctx, testScope(), task.ID, SetStatusRequest{Status: "OPEN"})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, task.Status)
	require.Nil(t, task.CompletedAt)
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	task, err := svc.Create(ctx, testScope(), CreateTaskRequest{Title: "call supervisor"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, testScope(), task.ID, SetStatusRequest{Status: "PENDING"})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateRejectsInactivePatient(t *testing.T) {
	svc, _, dir := newTestService()
	archived := time.Now()
	dir.patients[42].ArchivedAt = &archived
	patientID := int64(42)

	_, err := svc.Create(context.Background(), testScope(), CreateTaskRequest{
		Title:     "schedule intake",
		PatientID: &patientID,
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateRejectsBadDueDate(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), testScope(), CreateTaskRequest{
		Title: "send invoice",
		DueAt: "soon",
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestListFiltersUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.List(context.Background(), testScope(), ListTasksRequest{Status: "ARCHIVED"})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}
