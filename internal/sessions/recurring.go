package sessions

import (
	"fmt"
	"time"

	"github.com/praxis-clinic/praxis/internal/patients"
)

const (
	// recurringHorizonDays bounds how far forward the generator looks.
	// Eight weeks keeps the calendar filled without unbounded growth.
	recurringHorizonDays = 56

	// defaultSlotTime is used when a patient has a fixed day but no time.
	defaultSlotTime = "12:00"
)

// GenerationPlan is the pure output of the recurring generator. The caller
// persists the dates; the plan itself mutates nothing.
type GenerationPlan struct {
	Dates   []time.Time `json:"dates"`
	Summary string      `json:"summary"`
}

// PlanRecurring computes the session dates implied by the patient's fixed
// weekly slot over the forward horizon, skipping any calendar day that
// already has a session. Running the plan against its own persisted output
// yields an empty plan, so repeated runs never double-book a slot.
//
// A patient without a fixed slot yields an empty plan; that is not an
// error, not every patient has a standing appointment.
func PlanRecurring(patient *patients.Patient, existing []Session, now time.Time) GenerationPlan {
	if patient == nil || !patient.HasFixedSlot() {
		return GenerationPlan{Summary: "no fixed weekly slot configured"}
	}

	slotTime := patient.FixedSessionTime
	if slotTime == "" {
		slotTime = defaultSlotTime
	}
	parsed, err := time.Parse("15:04", slotTime)
	if err != nil {
		parsed, _ = time.Parse("15:04", defaultSlotTime)
	}

	booked := make(map[string]bool, len(existing))
	for _, s := range existing {
		if s.PatientID != patient.ID {
			continue
		}
		booked[s.ScheduledAt.Format("2006-01-02")] = true
	}

	targetDay := time.Weekday(*patient.FixedSessionDay)
	var dates []time.Time
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < recurringHorizonDays; i++ {
		d := day.AddDate(0, 0, i)
		if d.Weekday() != targetDay {
			continue
		}
		at := time.Date(d.Year(), d.Month(), d.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
		if !at.After(now) {
			continue
		}
		if booked[d.Format("2006-01-02")] {
			continue
		}
		dates = append(dates, at)
	}

	summary := "no new sessions to generate"
	if len(dates) > 0 {
		summary = fmt.Sprintf("%d sessions between %s and %s",
			len(dates),
			dates[0].Format("2006-01-02"),
			dates[len(dates)-1].Format("2006-01-02"))
	}
	return GenerationPlan{Dates: dates, Summary: summary}
}
