package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

const noteColumns = `id, owner_user_id, title, body, tags, patient_ids,
	created_at, updated_at`

// Repository provides PostgreSQL backed persistence for notes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a note row.
func (r *Repository) Create(ctx context.Context, scope shared.Scope, n Note) (*Note, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notes (
			owner_user_id, title, body, tags, patient_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		scope.UserID, n.Title, n.Body, n.Tags, n.PatientIDs, n.CreatedAt, n.UpdatedAt,
	).Scan(&n.ID)
	if err != nil {
		return nil, err
	}
	n.OwnerUserID = scope.UserID
	return &n, nil
}

// Get returns an owned note.
func (r *Repository) Get(ctx context.Context, scope shared.Scope, id int64) (*Note, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_user_id = $1 AND id = $2`,
		scope.UserID, id)
	return scanNote(row)
}

// List returns the scope's notes, filtered.
func (r *Repository) List(ctx context.Context, scope shared.Scope, req ListNotesRequest) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner_user_id = $1`
	args := []any{scope.UserID}
	if req.Tag != "" {
		args = append(args, req.Tag)
		query += fmt.Sprintf(` AND $%d = ANY(tags)`, len(args))
	}
	if req.PatientID > 0 {
		args = append(args, req.PatientID)
		query += fmt.Sprintf(` AND $%d = ANY(patient_ids)`, len(args))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		query += fmt.Sprintf(` AND (title ILIKE $%d OR body ILIKE $%d)`, len(args), len(args))
	}
	query += ` ORDER BY updated_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites an owned note.
func (r *Repository) Update(ctx context.Context, scope shared.Scope, n Note) (*Note, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notes SET
			title = $3, body = $4, tags = $5, patient_ids = $6, updated_at = NOW()
		WHERE owner_user_id = $1 AND id = $2
		RETURNING `+noteColumns,
		scope.UserID, n.ID, n.Title, n.Body, n.Tags, n.PatientIDs)
	return scanNote(row)
}

// Delete removes an owned note.
func (r *Repository) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notes WHERE owner_user_id = $1 AND id = $2`,
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

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	err := row.Scan(
		&n.ID, &n.OwnerUserID, &n.Title, &n.Body, &n.Tags, &n.PatientIDs,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}
