package guidance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

const entryColumns = `id, owner_user_id, supervisor, held_at, topic, notes,
	patient_ids, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for guidance entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an entry row.
func (r *Repository) Create(ctx context.Context, scope shared.Scope, e Entry) (*Entry, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO guidance_entries (
			owner_user_id, supervisor, held_at, topic, notes, patient_ids,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		scope.UserID, e.Supervisor, e.HeldAt, e.Topic, e.Notes, e.PatientIDs,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return nil, err
	}
	e.OwnerUserID = scope.UserID
	return &e, nil
}

// Get returns an owned entry.
func (r *Repository) Get(ctx context.Context, scope shared.Scope, id int64) (*Entry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM guidance_entries WHERE owner_user_id = $1 AND id = $2`,
		scope.UserID, id)
	return scanEntry(row)
}

// List returns the scope's entries, newest first.
func (r *Repository) List(ctx context.Context, scope shared.Scope) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM guidance_entries WHERE owner_user_id = $1 ORDER BY held_at DESC, id DESC`,
		scope.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites an owned entry.
func (r *Repository) Update(ctx context.Context, scope shared.Scope, e Entry) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE guidance_entries SET
			supervisor = $3, held_at = $4, topic = $5, notes = $6,
			patient_ids = $7, updated_at = NOW()
		WHERE owner_user_id = $1 AND id = $2
		RETURNING `+entryColumns,
		scope.UserID, e.ID, e.Supervisor, e.HeldAt, e.Topic, e.Notes, e.PatientIDs)
	return scanEntry(row)
}

// Delete removes an owned entry.
func (r *Repository) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM guidance_entries WHERE owner_user_id = $1 AND id = $2`,
		scope.UserID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.OwnerUserID, &e.Supervisor, &e.HeldAt, &e.Topic, &e.Notes,
		&e.PatientIDs, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
