package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-clinic/praxis/internal/platform/db"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

const patientColumns = `id, owner_user_id, code, full_name, email, phone, notes,
	archived_at, inactive_reason, fixed_session_day, fixed_session_time,
	created_at, updated_at`

// Repository provides PostgreSQL backed persistence for patients.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a patient row.
func (r *Repository) Create(ctx context.Context, scope shared.Scope, p Patient) (*Patient, error) {
	query := `
		INSERT INTO patients (
			owner_user_id, code, full_name, email, phone, notes,
			fixed_session_day, fixed_session_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		scope.UserID, p.Code, p.FullName, p.Email, p.Phone, p.Notes,
		p.FixedSessionDay, nullIfEmpty(p.FixedSessionTime), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: patient code %s", httpx.ErrDuplicate, p.Code)
		}
		return nil, err
	}
	p.OwnerUserID = scope.UserID
	return &p, nil
}

// Get returns a patient owned by the scope. A patient owned by another
// account reads as not found.
func (r *Repository) Get(ctx context.Context, scope shared.Scope, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE owner_user_id = $1 AND id = $2`,
		scope.UserID, id)
	return scanPatient(row)
}

// List returns all of the scope's patients matching the filter, active
// only unless asked otherwise. Ordering and paging are owned by the
// service, which sorts with Hebrew-aware collation before cutting pages.
func (r *Repository) List(ctx context.Context, scope shared.Scope, req ListPatientsRequest) ([]Patient, error) {
	where := `owner_user_id = $1`
	args := []any{scope.UserID}
	if !req.IncludeInactive {
		where += ` AND archived_at IS NULL`
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		where += fmt.Sprintf(` AND (full_name ILIKE $%d OR code ILIKE $%d)`, len(args), len(args))
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE `+where+` ORDER BY full_name, id`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateProfile edits profile fields of an owned patient.
func (r *Repository) UpdateProfile(ctx context.Context, scope shared.Scope, id int64, req UpdatePatientRequest) (*Patient, error) {
	query := `
		UPDATE patients SET
			full_name = $3, email = $4, phone = $5, notes = $6,
			fixed_session_day = $7, fixed_session_time = $8, updated_at = NOW()
		WHERE owner_user_id = $1 AND id = $2
		RETURNING ` + patientColumns

	row := r.pool.QueryRow(ctx, query,
		scope.UserID, id, req.FullName, req.Email, req.Phone, req.Notes,
		req.FixedSessionDay, nullIfEmpty(req.FixedSessionTime))
	return scanPatient(row)
}

// TxRepository exposes transactional lifecycle operations.
type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetForUpdate locks the patient row for the remainder of the transaction.
func (r *txRepo) GetForUpdate(ctx context.Context, scope shared.Scope, id int64) (*Patient, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE owner_user_id = $1 AND id = $2 FOR UPDATE`,
		scope.UserID, id)
	return scanPatient(row)
}

// MarkInactive sets the archival marker and reason.
func (r *txRepo) MarkInactive(ctx context.Context, scope shared.Scope, id int64, at time.Time, reason string) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE patients SET archived_at = $3, inactive_reason = $4, updated_at = NOW()
		 WHERE owner_user_id = $1 AND id = $2 AND archived_at IS NULL`,
		scope.UserID, id, at, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrConflict
	}
	return nil
}

// MarkActive clears the archival marker and records the justification.
func (r *txRepo) MarkActive(ctx context.Context, scope shared.Scope, id int64, reason string) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE patients SET archived_at = NULL, inactive_reason = '', reactivated_reason = $3, updated_at = NOW()
		 WHERE owner_user_id = $1 AND id = $2 AND archived_at IS NOT NULL`,
		scope.UserID, id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrConflict
	}
	return nil
}

// CancelFutureSessions cancels sessions scheduled strictly after the cutoff
// that are still awaiting their appointment.
func (r *txRepo) CancelFutureSessions(ctx context.Context, scope shared.Scope, patientID int64, after time.Time) (int64, error) {
	tag, err := r.tx.Exec(ctx,
		`UPDATE sessions SET status = 'CANCELED', updated_at = NOW()
		 WHERE owner_user_id = $1 AND patient_id = $2 AND scheduled_at > $3
		   AND status IN ('SCHEDULED', 'UNDOCUMENTED')`,
		scope.UserID, patientID, after)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CancelOpenTasks closes open tasks linked to the patient directly or
// through one of the patient's sessions.
func (r *txRepo) CancelOpenTasks(ctx context.Context, scope shared.Scope, patientID int64) (int64, error) {
	tag, err := r.tx.Exec(ctx,
		`UPDATE tasks SET status = 'CANCELED', updated_at = NOW()
		 WHERE owner_user_id = $1 AND status = 'OPEN'
		   AND (patient_id = $2 OR session_id IN (
		         SELECT id FROM sessions WHERE owner_user_id = $1 AND patient_id = $2))`,
		scope.UserID, patientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	var p Patient
	var fixedTime *string
	err := row.Scan(
		&p.ID, &p.OwnerUserID, &p.Code, &p.FullName, &p.Email, &p.Phone, &p.Notes,
		&p.ArchivedAt, &p.InactiveReason, &p.FixedSessionDay, &fixedTime,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	if fixedTime != nil {
		p.FixedSessionTime = *fixedTime
	}
	return &p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
