package jobs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(nil, nil, logger)
	r := chi.NewRouter()
	r.Route("/jobs", handler.MountRoutes)
	return r
}

func TestHealthWithoutInspector(t *testing.T) {
	mux := newTestMux(t)

	res := httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"queue":"default","pending":0}`, res.Body.String())
}

func TestEnqueueSweepWithoutClient(t *testing.T) {
	mux := newTestMux(t)

	res := httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/jobs/recurring-sweep", nil))

	require.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestEnqueueReminderRejectsMissingRecipient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(nil, &Client{}, logger)
	r := chi.NewRouter()
	r.Route("/jobs", handler.MountRoutes)

	res := httptest.NewRecorder()
	body := strings.NewReader(`{"patient_name":"Avi Cohen","scheduled_at":"2026-03-10T16:30:00Z"}`)
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/jobs/session-reminder", body))

	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestSessionReminderTaskRoundTrip(t *testing.T) {
	task, err := NewSessionReminderTask(SessionReminderPayload{
		To:          "avi@example.com",
		PatientName: "Avi Cohen",
		ScheduledAt: "2026-03-10T16:30:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, TaskMailSessionReminder, task.Type())

	require.NoError(t, HandleSessionReminderTask(context.Background(), task))
}

func TestSessionReminderTaskBadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(TaskMailSessionReminder, []byte("not-json"))
	err := HandleSessionReminderTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
