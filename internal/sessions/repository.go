package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-clinic/praxis/internal/platform/db"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

const sessionColumns = `id, owner_user_id, patient_id, scheduled_at, status,
	fee_nis, summary, is_recurring_template, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for sessions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a session row.
func (r *Repository) Create(ctx context.Context, scope shared.Scope, s Session) (*Session, error) {
	query := `
		INSERT INTO sessions (
			owner_user_id, patient_id, scheduled_at, status, fee_nis,
			summary, is_recurring_template, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		scope.UserID, s.PatientID, s.ScheduledAt, s.Status, s.FeeNis,
		s.Summary, s.IsRecurringTemplate, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return nil, err
	}
	s.OwnerUserID = scope.UserID
	return &s, nil
}

// CreateBatch inserts generated occurrences in one transaction.
func (r *Repository) CreateBatch(ctx context.Context, scope shared.Scope, items []Session) ([]Session, error) {
	created := make([]Session, 0, len(items))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, s := range items {
			err := tx.QueryRow(ctx, `
				INSERT INTO sessions (
					owner_user_id, patient_id, scheduled_at, status, fee_nis,
					summary, is_recurring_template, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id`,
				scope.UserID, s.PatientID, s.ScheduledAt, s.Status, s.FeeNis,
				s.Summary, s.IsRecurringTemplate, s.CreatedAt, s.UpdatedAt,
			).Scan(&s.ID)
			if err != nil {
				return err
			}
			s.OwnerUserID = scope.UserID
			created = append(created, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns an owned session.
func (r *Repository) Get(ctx context.Context, scope shared.Scope, id int64) (*Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE owner_user_id = $1 AND id = $2`,
		scope.UserID, id)
	return scanSession(row)
}

// List returns sessions in [from, to), optionally restricted to a patient.
func (r *Repository) List(ctx context.Context, scope shared.Scope, patientID int64, from, to time.Time) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE owner_user_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3`
	args := []any{scope.UserID, from, to}
	if patientID > 0 {
		query += ` AND patient_id = $4`
		args = append(args, patientID)
	}
	query += ` ORDER BY scheduled_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites the editable fields of an owned session.
func (r *Repository) Update(ctx context.Context, scope shared.Scope, s Session) (*Session, error) {
	query := `
		UPDATE sessions SET
			scheduled_at = $3, status = $4, fee_nis = $5, summary = $6, updated_at = NOW()
		WHERE owner_user_id = $1 AND id = $2
		RETURNING ` + sessionColumns

	row := r.pool.QueryRow(ctx, query,
		scope.UserID, s.ID, s.ScheduledAt, s.Status, s.FeeNis, s.Summary)
	return scanSession(row)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetForUpdate locks a session row for the remainder of the transaction.
func (r *txRepo) GetForUpdate(ctx context.Context, scope shared.Scope, id int64) (*Session, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE owner_user_id = $1 AND id = $2 FOR UPDATE`,
		scope.UserID, id)
	return scanSession(row)
}

// DetachTasks clears task references to a session about to be removed.
func (r *txRepo) DetachTasks(ctx context.Context, scope shared.Scope, sessionID int64) (int64, error) {
	tag, err := r.tx.Exec(ctx,
		`UPDATE tasks SET session_id = NULL, updated_at = NOW()
		 WHERE owner_user_id = $1 AND session_id = $2`,
		scope.UserID, sessionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes an owned session row.
func (r *txRepo) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	tag, err := r.tx.Exec(ctx,
		`DELETE FROM sessions WHERE owner_user_id = $1 AND id = $2`,
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

func scanSession(row rowScanner) (*Session, error) {
	var s Session
	err := row.Scan(
		&s.ID, &s.OwnerUserID, &s.PatientID, &s.ScheduledAt, &s.Status,
		&s.FeeNis, &s.Summary, &s.IsRecurringTemplate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
