package sessions

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
	sessions map[int64]*Session
	// taskRefs maps task IDs to the session they reference, nil once
	// detached.
	taskRefs map[int64]*int64
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions: make(map[int64]*Session),
		taskRefs: make(map[int64]*int64),
	}
}

func (r *memoryRepo) Create(ctx context.Context, scope shared.Scope, s Session) (*Session, error) {
	r.nextID++
	s.ID = r.nextID
	r.sessions[s.ID] = &s
	out := s
	return &out, nil
}

func (r *memoryRepo) CreateBatch(ctx context.Context, scope shared.Scope, items []Session) ([]Session, error) {
	out := make([]Session, 0, len(items))
	for _, s := range items {
		created, err := r.Create(ctx, scope, s)
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, scope shared.Scope, id int64) (*Session, error) {
	s, ok := r.sessions[id]
	if !ok || s.OwnerUserID != scope.UserID {
		return nil, httpx.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (r *memoryRepo) List(ctx context.Context, scope shared.Scope, patientID int64, from, to time.Time) ([]Session, error) {
	var items []Session
	for _, s := range r.sessions {
		if s.OwnerUserID != scope.UserID {
			continue
		}
		if patientID > 0 && s.PatientID != patientID {
			continue
		}
		if s.ScheduledAt.Before(from) || s.ScheduledAt.After(to) {
			continue
		}
		items = append(items, *s)
	}
	return items, nil
}

func (r *memoryRepo) Update(ctx context.Context, scope shared.Scope, s Session) (*Session, error) {
	if _, err := r.Get(ctx, scope, s.ID); err != nil {
		return nil, err
	}
	r.sessions[s.ID] = &s
	out := s
	return &out, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, scope shared.Scope, id int64) (*Session, error) {
	return tx.repo.Get(ctx, scope, id)
}

func (tx *memoryTx) DetachTasks(ctx context.Context, scope shared.Scope, sessionID int64) (int64, error) {
	var n int64
	for taskID, ref := range tx.repo.taskRefs {
		if ref != nil && *ref == sessionID {
			tx.repo.taskRefs[taskID] = nil
			n++
		}
	}
	return n, nil
}

func (tx *memoryTx) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	s, ok := tx.repo.sessions[id]
	if !ok || s.OwnerUserID != scope.UserID {
		return httpx.ErrNotFound
	}
	delete(tx.repo.sessions, id)
	return nil
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

func newTestService(t *testing.T, now time.Time) (*Service, *memoryRepo, *memoryDirectory) {
	t.Helper()
	repo := newMemoryRepo()
	tuesday := 2
	dir := &memoryDirectory{patients: map[int64]*patients.Patient{
		42: {ID: 42, OwnerUserID: 1, Code: "PT-TEST0001", FullName: "Avi Cohen",
			FixedSessionDay: &tuesday, FixedSessionTime: "16:30"},
		43: {ID: 43, OwnerUserID: 1, Code: "PT-TEST0002", FullName: "Noa Mizrahi"},
	}}
	svc := NewService(repo, dir).WithClock(func() time.Time { return now })
	return svc, repo, dir
}

func TestCreateRejectsInactivePatient(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, _, dir := newTestService(t, now)
	archived := now.AddDate(0, -1, 0)
	dir.patients[43].ArchivedAt = &archived

	_, err := svc.Create(context.Background(), testScope(), CreateSessionRequest{
		PatientID:   43,
		ScheduledAt: "2026-03-10T10:00:00Z",
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestGenerateRecurringPersistsPlan(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)
	ctx := context.Background()

	plan, err := svc.GenerateRecurring(ctx, testScope(), 42)
	require.NoError(t, err)
	require.Len(t, plan.Dates, 8)
	require.Len(t, repo.sessions, 8)
	for _, s := range repo.sessions {
		require.True(t, s.IsRecurringTemplate)
		require.Equal(t, StatusScheduled, s.Status)
		require.EqualValues(t, 42, s.PatientID)
	}

	// A second run finds all slots booked and creates nothing.
	plan, err = svc.GenerateRecurring(ctx, testScope(), 42)
	require.NoError(t, err)
	require.Empty(t, plan.Dates)
	require.Len(t, repo.sessions, 8)
}

func TestGenerateRecurringNoSlot(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	plan, err := svc.GenerateRecurring(context.Background(), testScope(), 43)
	require.NoError(t, err)
	require.Empty(t, plan.Dates)
	require.Empty(t, repo.sessions)
}

func TestMergeDeletesSecondaryKeepsPrimary(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)
	ctx := context.Background()

	a, err := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 42,
		ScheduledAt: time.Date(2026, 3, 3, 16, 30, 0, 0, time.UTC), Status: StatusScheduled})
	require.NoError(t, err)
	b, err := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 42,
		ScheduledAt: time.Date(2026, 3, 3, 16, 35, 0, 0, time.UTC), Status: StatusScheduled, IsRecurringTemplate: true})
	require.NoError(t, err)

	result, err := svc.Merge(ctx, testScope(), a.ID, b.ID)
	require.NoError(t, err)
	require.True(t, result.Merged)
	require.Equal(t, a.ID, result.Kept)
	require.Equal(t, b.ID, result.Deleted)

	_, err = repo.Get(ctx, testScope(), b.ID)
	require.True(t, errors.Is(err, httpx.ErrNotFound))
	kept, err := repo.Get(ctx, testScope(), a.ID)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 3, 16, 30, 0, 0, time.UTC), kept.ScheduledAt)
}

func TestMergeDetachesSecondaryTasks(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)
	ctx := context.Background()

	a, err := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 42,
		ScheduledAt: time.Date(2026, 3, 3, 16, 30, 0, 0, time.UTC), Status: StatusScheduled})
	require.NoError(t, err)
	b, err := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 42,
		ScheduledAt: time.Date(2026, 3, 3, 16, 35, 0, 0, time.UTC), Status: StatusScheduled})
	require.NoError(t, err)

	secondaryRef := b.ID
	primaryRef := a.ID
	repo.taskRefs[71] = &secondaryRef
	repo.taskRefs[72] = &primaryRef

	result, err := svc.Merge(ctx, testScope(), a.ID, b.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, result.DetachedTasks)

	require.Nil(t, repo.taskRefs[71])
	require.NotNil(t, repo.taskRefs[72])
	require.Equal(t, a.ID, *repo.taskRefs[72])

	_, err = repo.Get(ctx, testScope(), b.ID)
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestMergeCrossPatientRejected(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)
	ctx := context.Background()

	a, _ := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 42,
		ScheduledAt: now, Status: StatusScheduled})
	b, _ := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 43,
		ScheduledAt: now, Status: StatusScheduled})

	_, err := svc.Merge(ctx, testScope(), a.ID, b.ID)
	require.True(t, errors.Is(err, httpx.ErrValidation))

	// Neither side was touched.
	_, err = repo.Get(ctx, testScope(), a.ID)
	require.NoError(t, err)
	_, err = repo.Get(ctx, testScope(), b.ID)
	require.NoError(t, err)
}

func TestMergeSelfRejected(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)
	ctx := context.Background()

	a, _ := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 42,
		ScheduledAt: now, Status: StatusScheduled})

	_, err := svc.Merge(ctx, testScope(), a.ID, a.ID)
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestMergeMissingSessionNotFound(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)
	ctx := context.Background()

	a, _ := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 42,
		ScheduledAt: now, Status: StatusScheduled})

	_, err := svc.Merge(ctx, testScope(), a.ID, 9999)
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)
	ctx := context.Background()

	a, _ := repo.Create(ctx, testScope(), Session{OwnerUserID: 1, PatientID: 42,
		ScheduledAt: now, Status: StatusScheduled})

	_, err := svc.Update(ctx, testScope(), a.ID, UpdateSessionRequest{
		ScheduledAt: "2026-03-10T10:00:00Z",
		Status:      "POSTPONED",
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}
