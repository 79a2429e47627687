package billing

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

const receiptColumns = `id, owner_user_id, number, patient_id, session_ids,
	amount_nis, amount_text, issued_at, voided_at, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for receipts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NextNumber issues the next receipt number in the owner's yearly sequence.
func (r *Repository) NextNumber(ctx context.Context, scope shared.Scope, year int) (string, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO receipt_sequences (owner_user_id, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (owner_user_id, year)
		DO UPDATE SET last_value = receipt_sequences.last_value + 1
		RETURNING last_value`,
		scope.UserID, year).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RC-%d-%04d", year, seq), nil
}

// Create inserts a receipt row.
func (r *Repository) Create(ctx context.Context, scope shared.Scope, rec Receipt) (*Receipt, error) {
	query := `
		INSERT INTO receipts (
			owner_user_id, number, patient_id, session_ids, amount_nis,
			amount_text, issued_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		scope.UserID, rec.Number, rec.PatientID, rec.SessionIDs, rec.AmountNis,
		rec.AmountText, rec.IssuedAt, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return nil, err
	}
	rec.OwnerUserID = scope.UserID
	return &rec, nil
}

// Get returns an owned receipt.
func (r *Repository) Get(ctx context.Context, scope shared.Scope, id int64) (*Receipt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE owner_user_id = $1 AND id = $2`,
		scope.UserID, id)
	return scanReceipt(row)
}

// List returns the scope's receipts.
func (r *Repository) List(ctx context.Context, scope shared.Scope, req ListReceiptsRequest) ([]Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE owner_user_id = $1`
	args := []any{scope.UserID}
	if !req.IncludeVoided {
		query += ` AND voided_at IS NULL`
	}
	if req.PatientID > 0 {
		args = append(args, req.PatientID)
		query += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	query += ` ORDER BY issued_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Void sets the void marker on an owned, not yet voided receipt.
func (r *Repository) Void(ctx context.Context, scope shared.Scope, id int64, at time.Time) (*Receipt, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE receipts SET voided_at = $3, updated_at = NOW()
		WHERE owner_user_id = $1 AND id = $2 AND voided_at IS NULL
		RETURNING `+receiptColumns,
		scope.UserID, id, at)
	rec, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("%w: receipt missing or already voided", httpx.ErrConflict)
		}
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*Receipt, error) {
	var rec Receipt
	err := row.Scan(
		&rec.ID, &rec.OwnerUserID, &rec.Number, &rec.PatientID, &rec.SessionIDs,
		&rec.AmountNis, &rec.AmountText, &rec.IssuedAt, &rec.VoidedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}
