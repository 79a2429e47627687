package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praxis-clinic/praxis/internal/patients"
)

func fixedSlotPatient(day int, slot string) *patients.Patient {
	return &patients.Patient{
		ID:               42,
		OwnerUserID:      1,
		Code:             "PT-TEST0001",
		FullName:         "Avi Cohen",
		FixedSessionDay:  &day,
		FixedSessionTime: slot,
	}
}

func TestPlanRecurringFillsHorizon(t *testing.T) {
	// 2026-03-02 is a Monday; slot is Tuesday 16:30.
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p := fixedSlotPatient(2, "16:30")

	plan := PlanRecurring(p, nil, now)
	require.Len(t, plan.Dates, 8)
	for _, d := range plan.Dates {
		require.Equal(t, time.Tuesday, d.Weekday())
		require.Equal(t, 16, d.Hour())
		require.Equal(t, 30, d.Minute())
		require.True(t, d.After(now))
	}
	require.Equal(t, time.Date(2026, 3, 3, 16, 30, 0, 0, time.UTC), plan.Dates[0])
	require.Contains(t, plan.Summary, "8 sessions")
}

func TestPlanRecurringSkipsBookedDays(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p := fixedSlotPatient(2, "16:30")

	// An existing session on the first Tuesday, at a different hour.
	existing := []Session{
		{ID: 1, PatientID: p.ID, ScheduledAt: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), Status: StatusScheduled},
	}
	plan := PlanRecurring(p, existing, now)
	require.Len(t, plan.Dates, 7)
	require.Equal(t, time.Date(2026, 3, 10, 16, 30, 0, 0, time.UTC), plan.Dates[0])
}

func TestPlanRecurringIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p := fixedSlotPatient(2, "16:30")

	first := PlanRecurring(p, nil, now)
	require.NotEmpty(t, first.Dates)

	persisted := make([]Session, 0, len(first.Dates))
	for i, at := range first.Dates {
		persisted = append(persisted, Session{
			ID:                  int64(i + 1),
			PatientID:           p.ID,
			ScheduledAt:         at,
			Status:              StatusScheduled,
			IsRecurringTemplate: true,
		})
	}

	second := PlanRecurring(p, persisted, now)
	require.Empty(t, second.Dates)
	require.Equal(t, "no new sessions to generate", second.Summary)
}

func TestPlanRecurringSkipsSlotEarlierToday(t *testing.T) {
	// Now is Tuesday 17:00, slot is Tuesday 16:30: today's occurrence is
	// already in the past and must not be generated.
	now := time.Date(2026, 3, 3, 17, 0, 0, 0, time.UTC)
	p := fixedSlotPatient(2, "16:30")

	plan := PlanRecurring(p, nil, now)
	require.NotEmpty(t, plan.Dates)
	require.Equal(t, time.Date(2026, 3, 10, 16, 30, 0, 0, time.UTC), plan.Dates[0])
}

func TestPlanRecurringNoSlot(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p := &patients.Patient{ID: 42, FullName: "Noa Mizrahi"}

	plan := PlanRecurring(p, nil, now)
	require.Empty(t, plan.Dates)
	require.Equal(t, "no fixed weekly slot configured", plan.Summary)

	plan = PlanRecurring(nil, nil, now)
	require.Empty(t, plan.Dates)
}

func TestPlanRecurringDefaultsSlotTime(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p := fixedSlotPatient(0, "")

	plan := PlanRecurring(p, nil, now)
	require.NotEmpty(t, plan.Dates)
	require.Equal(t, time.Sunday, plan.Dates[0].Weekday())
	require.Equal(t, 12, plan.Dates[0].Hour())
	require.Equal(t, 0, plan.Dates[0].Minute())
}

func TestPlanRecurringIgnoresOtherPatients(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p := fixedSlotPatient(2, "16:30")

	existing := []Session{
		{ID: 1, PatientID: 999, ScheduledAt: time.Date(2026, 3, 3, 16, 30, 0, 0, time.UTC), Status: StatusScheduled},
	}
	plan := PlanRecurring(p, existing, now)
	require.Len(t, plan.Dates, 8)
}
