package sessions

import (
	"fmt"
	"time"

	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/platform/httpx"
)

// slotTolerance is how far from the candidate day an auto-generated
// occurrence may sit and still be treated as the same real-world
// appointment, when the patient has a fixed weekly slot.
const slotTolerance = 24 * time.Hour

// MergeSuggestion is the advisory result of duplicate detection. Nothing
// is mutated; the actual merge is a separate, user-confirmed operation.
type MergeSuggestion struct {
	HasMergeSuggestion bool   `json:"has_merge_suggestion"`
	SuggestedSessionID int64  `json:"suggested_session_id,omitempty"`
	Reason             string `json:"reason,omitempty"`
}

// DetectMerge decides whether a candidate booking at date/hour/minute
// likely duplicates an existing session of the same patient.
//
// A same-calendar-day session always qualifies. When the patient has a
// fixed weekly slot and the candidate falls near it, sessions within one
// day qualify too, since the generator may have placed the occurrence on
// the neighbouring date. Only SCHEDULED and COMPLETED sessions are
// considered; canceled ones are already out of play. The closest session
// by absolute time distance wins, ties broken by earliest start.
func DetectMerge(date string, hour, minute int, patient *patients.Patient, existing []Session) (*MergeSuggestion, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", httpx.ErrValidation, date)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("%w: time %02d:%02d", httpx.ErrValidation, hour, minute)
	}
	candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)

	nearSlot := false
	if patient != nil && patient.HasFixedSlot() {
		dayDiff := int(candidate.Weekday()) - *patient.FixedSessionDay
		if dayDiff < 0 {
			dayDiff = -dayDiff
		}
		// Weekday distance wraps around the week boundary.
		if dayDiff > 3 {
			dayDiff = 7 - dayDiff
		}
		nearSlot = dayDiff <= 1
	}

	var best *Session
	var bestDistance time.Duration
	for i := range existing {
		s := &existing[i]
		if patient != nil && s.PatientID != patient.ID {
			continue
		}
		if s.Status != StatusScheduled && s.Status != StatusCompleted {
			continue
		}

		at := s.ScheduledAt.In(candidate.Location())
		sameDay := at.Year() == candidate.Year() && at.YearDay() == candidate.YearDay()
		distance := candidate.Sub(at)
		if distance < 0 {
			distance = -distance
		}
		withinSlotWindow := nearSlot && distance <= slotTolerance

		if !sameDay && !withinSlotWindow {
			continue
		}
		if best == nil || distance < bestDistance ||
			(distance == bestDistance && at.Before(best.ScheduledAt)) {
			best = s
			bestDistance = distance
		}
	}

	if best == nil {
		return &MergeSuggestion{}, nil
	}

	reason := fmt.Sprintf("existing session on %s", best.ScheduledAt.Format("2006-01-02 15:04"))
	if best.IsRecurringTemplate {
		reason = fmt.Sprintf("auto-generated session on %s", best.ScheduledAt.Format("2006-01-02 15:04"))
	}
	return &MergeSuggestion{
		HasMergeSuggestion: true,
		SuggestedSessionID: best.ID,
		Reason:             reason,
	}, nil
}
