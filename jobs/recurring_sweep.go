package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/praxis-clinic/praxis/internal/sessions"
	"github.com/praxis-clinic/praxis/internal/shared"
)

// RecurringSweepJob extends the auto-generated schedule for every active
// patient that has a fixed weekly slot configured.
type RecurringSweepJob struct {
	Sessions *sessions.Service
	Pool     *pgxpool.Pool
	Logger   *slog.Logger
	clock    func() time.Time
}

// NewRecurringSweepJob wires dependencies for the sweep handler.
func NewRecurringSweepJob(sessionsSvc *sessions.Service, pool *pgxpool.Pool, logger *slog.Logger) *RecurringSweepJob {
	return &RecurringSweepJob{
		Sessions: sessionsSvc,
		Pool:     pool,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type sweepTarget struct {
	PatientID   int64
	OwnerUserID int64
}

// Handle processes recurring sweep tasks.
func (j *RecurringSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sessions == nil || j.Pool == nil {
		return errors.New("recurring sweep: handler not configured")
	}
	var payload RecurringSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	started := j.clock()
	logger.Info("starting recurring sweep", slog.Int64("owner_user_id", payload.OwnerUserID))

	targets, err := j.fetchTargets(ctx, payload.OwnerUserID)
	if err != nil {
		logger.Error("load sweep targets", slog.Any("error", err))
		return err
	}
	if len(targets) == 0 {
		logger.Info("no patients with fixed slots")
		return nil
	}

	var generated int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	results := make([]int, len(targets))
	for i, target := range targets {
		g.Go(func() error {
			scope := shared.Scope{UserID: target.OwnerUserID, Role: shared.RoleTherapist}
			plan, err := j.Sessions.GenerateRecurring(gctx, scope, target.PatientID)
			if err != nil {
				return err
			}
			results[i] = len(plan.Dates)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("recurring sweep", slog.Any("error", err))
		return err
	}
	for _, n := range results {
		generated += int64(n)
	}

	logger.Info("completed recurring sweep",
		slog.Int("patients", len(targets)),
		slog.Int64("sessions_created", generated),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *RecurringSweepJob) fetchTargets(ctx context.Context, ownerUserID int64) ([]sweepTarget, error) {
	query := `
		SELECT id, owner_user_id
		FROM patients
		WHERE archived_at IS NULL AND fixed_session_day IS NOT NULL`
	args := []any{}
	if ownerUserID > 0 {
		query += ` AND owner_user_id = $1`
		args = append(args, ownerUserID)
	}
	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []sweepTarget
	for rows.Next() {
		var t sweepTarget
		if err := rows.Scan(&t.PatientID, &t.OwnerUserID); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (j *RecurringSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
