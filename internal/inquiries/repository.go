package inquiries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-clinic/praxis/internal/platform/db"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
)

const inquiryColumns = `id, owner_user_id, full_name, email, phone, source,
	notes, status, patient_id, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for inquiries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an inquiry row.
func (r *Repository) Create(ctx context.Context, scope shared.Scope, i Inquiry) (*Inquiry, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO inquiries (
			owner_user_id, full_name, email, phone, source, notes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		scope.UserID, i.FullName, i.Email, i.Phone, i.Source, i.Notes, i.Status,
		i.CreatedAt, i.UpdatedAt,
	).Scan(&i.ID)
	if err != nil {
		return nil, err
	}
	i.OwnerUserID = scope.UserID
	return &i, nil
}

// Get returns an owned inquiry.
func (r *Repository) Get(ctx context.Context, scope shared.Scope, id int64) (*Inquiry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+inquiryColumns+` FROM inquiries WHERE owner_user_id = $1 AND id = $2`,
		scope.UserID, id)
	return scanInquiry(row)
}

// List returns the scope's inquiries.
func (r *Repository) List(ctx context.Context, scope shared.Scope, status Status) ([]Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE owner_user_id = $1`
	args := []any{scope.UserID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Inquiry
	for rows.Next() {
		i, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Dismiss closes a NEW inquiry.
func (r *Repository) Dismiss(ctx context.Context, scope shared.Scope, id int64, at time.Time) (*Inquiry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE inquiries SET status = 'DISMISSED', updated_at = $3
		WHERE owner_user_id = $1 AND id = $2 AND status = 'NEW'
		RETURNING `+inquiryColumns,
		scope.UserID, id, at)
	inquiry, err := scanInquiry(row)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("%w: inquiry missing or already handled", httpx.ErrConflict)
		}
		return nil, err
	}
	return inquiry, nil
}

// Convert creates the patient (and optional first session) and marks the
// inquiry converted, all inside one transaction. The inquiry row is locked
// first so a concurrent conversion sees CONFLICT, not a second patient.
func (r *Repository) Convert(ctx context.Context, scope shared.Scope, params ConvertParams) (*ConvertResult, error) {
	var result ConvertResult
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+inquiryColumns+` FROM inquiries WHERE owner_user_id = $1 AND id = $2 FOR UPDATE`,
			scope.UserID, params.InquiryID)
		inquiry, err := scanInquiry(row)
		if err != nil {
			return err
		}
		if inquiry.Status != StatusNew {
			return fmt.Errorf("%w: inquiry already %s", httpx.ErrConflict, inquiry.Status)
		}

		var fixedTime *string
		if params.FixedSessionTime != "" {
			fixedTime = &params.FixedSessionTime
		}
		var patientID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO patients (
				owner_user_id, code, full_name, email, phone, notes,
				fixed_session_day, fixed_session_time, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING id`,
			scope.UserID, params.PatientCode, inquiry.FullName, inquiry.Email,
			inquiry.Phone, inquiry.Notes, params.FixedSessionDay, fixedTime, params.Now,
		).Scan(&patientID)
		if err != nil {
			return err
		}

		if params.FirstSessionAt != nil {
			var sessionID int64
			err = tx.QueryRow(ctx, `
				INSERT INTO sessions (
					owner_user_id, patient_id, scheduled_at, status, fee_nis,
					is_recurring_template, created_at, updated_at
				) VALUES ($1, $2, $3, 'SCHEDULED', $4, FALSE, $5, $5)
				RETURNING id`,
				scope.UserID, patientID, *params.FirstSessionAt, params.FeeNis, params.Now,
			).Scan(&sessionID)
			if err != nil {
				return err
			}
			result.SessionID = &sessionID
		}

		_, err = tx.Exec(ctx, `
			UPDATE inquiries SET status = 'CONVERTED', patient_id = $3, updated_at = $4
			WHERE owner_user_id = $1 AND id = $2`,
			scope.UserID, params.InquiryID, patientID, params.Now)
		if err != nil {
			return err
		}

		result.InquiryID = params.InquiryID
		result.PatientID = patientID
		result.Code = params.PatientCode
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row rowScanner) (*Inquiry, error) {
	var i Inquiry
	err := row.Scan(
		&i.ID, &i.OwnerUserID, &i.FullName, &i.Email, &i.Phone, &i.Source,
		&i.Notes, &i.Status, &i.PatientID, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}
