package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsRecurringSweep extends recurring schedules for every
	// patient with a fixed weekly slot.
	TaskSessionsRecurringSweep = "sessions:recurring_sweep"
	// TaskMailSessionReminder is the task type for session reminder emails.
	TaskMailSessionReminder = "mail:session_reminder"
)

// RecurringSweepPayload narrows the sweep to one owner when OwnerUserID
// is set; zero means all owners.
type RecurringSweepPayload struct {
	OwnerUserID int64 `json:"owner_user_id,omitempty"`
}

// NewRecurringSweepTask constructs an Asynq task.
func NewRecurringSweepTask(payload RecurringSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsRecurringSweep, data), nil
}

// SessionReminderPayload describes a reminder for an upcoming session.
type SessionReminderPayload struct {
	To          string `json:"to"`
	PatientName string `json:"patient_name"`
	ScheduledAt string `json:"scheduled_at"`
}

// NewSessionReminderTask constructs an Asynq task.
func NewSessionReminderTask(payload SessionReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMailSessionReminder, data), nil
}

// HandleSessionReminderTask processes TaskMailSessionReminder tasks.
func HandleSessionReminderTask(ctx context.Context, t *asynq.Task) error {
	var payload SessionReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery lands with the notifications work.
	slog.Default().Info("session reminder",
		slog.String("to", payload.To),
		slog.String("patient", payload.PatientName),
		slog.String("scheduled_at", payload.ScheduledAt))
	return nil
}
