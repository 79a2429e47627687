package guidance

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
	entries map[int64]*Entry
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[int64]*Entry)}
}

func (r *memoryRepo) Create(ctx context.Context, scope shared.Scope, e Entry) (*Entry, error) {
	r.nextID++
	e.ID = r.nextID
	r.entries[e.ID] = &e
	out := e
	return &out, nil
}

func (r *memoryRepo) Get(ctx context.Context, scope shared.Scope, id int64) (*Entry, error) {
	e, ok := r.entries[id]
	if !ok || e.OwnerUserID != scope.UserID {
		return nil, httpx.ErrNotFound
	}
	out := *e
	return &out, nil
}

func (r *memoryRepo) List(ctx context.Context, scope shared.Scope) ([]Entry, error) {
	var items []Entry
	for _, e := range r.entries {
		if e.OwnerUserID != scope.UserID {
			continue
		}
		items = append(items, *e)
	}
	return items, nil
}

func (r *memoryRepo) Update(ctx context.Context, scope shared.Scope, e Entry) (*Entry, error) {
	if _, err := r.Get(ctx, scope, e.ID); err != nil {
		return nil, err
	}
	r.entries[e.ID] = &e
	out := e
	return &out, nil
}

func (r *memoryRepo) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if _, err := r.Get(ctx, scope, id); err != nil {
		return err
	}
	delete(r.entries, id)
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

func newTestService() (*Service, *memoryDirectory) {
	dir := &memoryDirectory{patients: map[int64]*patients.Patient{
		42: {ID: 42, OwnerUserID: 1, Code: "PT-TEST0001", FullName: "Avi Cohen"},
	}}
	return NewService(newMemoryRepo(), dir), dir
}

func TestCreateLinksPatients(t *testing.T) {
	svc, _ := newTestService()

	entry, err := svc.Create(context.Background(), testScope(), CreateEntryRequest{
		Supervisor: "Dr. Mizrahi",
		HeldAt:     "2026-03-05",
		Topic:      "transference",
		PatientIDs: []int64{42},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{42}, entry.PatientIDs)
	require.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), entry.HeldAt)
}

func TestCreateRejectsInactivePatientLink(t *testing.T) {
	svc, dir := newTestService()
	archived := time.Now()
	dir.patients[42].ArchivedAt = &archived

	_, err := svc.Create(context.Background(), testScope(), CreateEntryRequest{
		Supervisor: "Dr. Mizrahi",
		HeldAt:     "2026-03-05",
		PatientIDs: []int64{42},
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateRejectsBadDate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), testScope(), CreateEntryRequest{
		Supervisor: "Dr. Mizrahi",
		HeldAt:     "05/03/2026",
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestUpdateScopedToOwner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	entry, err := svc.Create(ctx, testScope(), CreateEntryRequest{
		Supervisor: "Dr. Mizrahi",
		HeldAt:     "2026-03-05",
	})
	require.NoError(t, err)

	other := shared.Scope{UserID: 2, Role: shared.RoleTherapist}
	_, err = svc.Update(ctx, other, entry.ID, UpdateEntryRequest{
		Supervisor: "Dr. Peretz",
		HeldAt:     "2026-03-12",
	})
	require.True(t, errors.Is(err, httpx.ErrNotFound))

	updated, err := svc.Update(ctx, testScope(), entry.ID, UpdateEntryRequest{
		Supervisor: "Dr. Peretz",
		HeldAt:     "2026-03-12",
	})
	require.NoError(t, err)
	require.Equal(t, "Dr. Peretz", updated.Supervisor)
}
