package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

const taskColumns = `id, owner_user_id, title, status, patient_id, session_id,
	due_at, completed_at, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a task row.
func (r *Repository) Create(ctx context.Context, scope shared.Scope, t Task) (*Task, error) {
	query := `
		INSERT INTO tasks (
			owner_user_id, title, status, patient_id, session_id,
			due_at, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		scope.UserID, t.Title, t.Status, t.PatientID, t.SessionID,
		t.DueAt, t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return nil, err
	}
	t.OwnerUserID = scope.UserID
	return &t, nil
}

// Get returns an owned task.
func (r *Repository) Get(ctx context.Context, scope shared.Scope, id int64) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_user_id = $1 AND id = $2`,
		scope.UserID, id)
	return scanTask(row)
}

// List returns the scope's tasks, filtered.
func (r *Repository) List(ctx context.Context, scope shared.Scope, req ListTasksRequest) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_user_id = $1`
	args := []any{scope.UserID}
	if req.Status != "" {
		args = append(args, req.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if req.PatientID > 0 {
		args = append(args, req.PatientID)
		query += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if req.DueBefore != "" {
		due, err := time.Parse("2006-01-02", req.DueBefore)
		if err != nil {
			return nil, fmt.Errorf("%w: due_before %q", httpx.ErrValidation, req.DueBefore)
		}
		args = append(args, due)
		query += fmt.Sprintf(` AND due_at < $%d`, len(args))
	}
	query += ` ORDER BY due_at NULLS LAST, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites the mutable fields of an owned task.
func (r *Repository) Update(ctx context.Context, scope shared.Scope, t Task) (*Task, error) {
	query := `
		UPDATE tasks SET
			title = $3, status = $4, due_at = $5, completed_at = $6, updated_at = NOW()
		WHERE owner_user_id = $1 AND id = $2
		RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query,
		scope.UserID, t.ID, t.Title, t.Status, t.DueAt, t.CompletedAt)
	return scanTask(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.OwnerUserID, &t.Title, &t.Status, &t.PatientID, &t.SessionID,
		&t.DueAt, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
