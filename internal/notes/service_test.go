package notes

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
	notes  map[int64]*Note
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{notes: make(map[int64]*Note)}
}

func (r *memoryRepo) Create(ctx context.Context, scope shared.Scope, n Note) (*Note, error) {
	r.nextID++
	n.ID = r.nextID
	r.notes[n.ID] = &n
	out := n
	return &out, nil
}

func (r *memoryRepo) Get(ctx context.Context, scope shared.Scope, id int64) (*Note, error) {
	n, ok := r.notes[id]
	if !ok || n.OwnerUserID != scope.UserID {
		return nil, httpx.ErrNotFound
	}
	out := *n
	return &out, nil
}

func (r *memoryRepo) List(ctx context.Context, scope shared.Scope, req ListNotesRequest) ([]Note, error) {
	var items []Note
	for _, n := range r.notes {
		if n.OwnerUserID != scope.UserID {
			continue
		}
		if req.Tag != "" && !hasTag(n.Tags, req.Tag) {
			continue
		}
		items = append(items, *n)
	}
	return items, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Update(ctx context.Context, scope shared.Scope, n Note) (*Note, error) {
	if _, err := r.Get(ctx, scope, n.ID); err != nil {
		return nil, err
	}
	r.notes[n.ID] = &n
	out := n
	return &out, nil
}

func (r *memoryRepo) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if _, err := r.Get(ctx, scope, id); err != nil {
		return err
	}
	delete(r.notes, id)
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

func TestCreateNormalizesTags(t *testing.T) {
	svc, _ := newTestService()

	note, err := svc.Create(context.Background(), testScope(), SaveNoteRequest{
		Title: "CBT reading list",
		Tags:  []string{" CBT ", "cbt", "Anxiety", ""},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"cbt", "anxiety"}, note.Tags)
}

func TestCreateRejectsInactivePatientLink(t *testing.T) {
	svc, dir := newTestService()
	archived := time.Now()
	dir.patients[42].ArchivedAt = &archived

	_, err := svc.Create(context.Background(), testScope(), SaveNoteRequest{
		Title:      "follow-up ideas",
		PatientIDs: []int64{42},
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateRejectsUnknownPatientLink(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), testScope(), SaveNoteRequest{
		Title:      "follow-up ideas",
		PatientIDs: []int64{999},
	})
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestListFiltersByTag(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, testScope(), SaveNoteRequest{Title: "one", Tags: []string{"cbt"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, testScope(), SaveNoteRequest{Title: "two", Tags: []string{"emdr"}})
	require.NoError(t, err)

	items, err := svc.List(ctx, testScope(), ListNotesRequest{Tag: "cbt"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "one", items[0].Title)
}

func TestDeleteScopedToOwner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	note, err := svc.Create(ctx, testScope(), SaveNoteRequest{Title: "private"})
	require.NoError(t, err)

	other := shared.Scope{UserID: 2, Role: shared.RoleTherapist}
	err = svc.Delete(ctx, other, note.ID)
	require.True(t, errors.Is(err, httpx.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, testScope(), note.ID))
}
