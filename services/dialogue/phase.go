// Package dialogue runs one conversational turn: it reads the utterance,
// routes between suggesting, disambiguating and confirming, and hands
// confirmed selections to the booking finalizer.
package dialogue

import (
	"strings"
	"time"

	"bookingagent/models"
	ai "bookingagent/services/intelligence"
)

// Phase is a state of the per-turn state machine.
type Phase string

const (
	PhaseAwaitingIntent    Phase = "awaiting_intent"
	PhaseFetchAvailability Phase = "fetch_availability"
	PhaseSuggestSlots      Phase = "suggest_slots"
	PhaseConfirmSelection  Phase = "confirm_selection"
	PhaseFinalizeBooking   Phase = "finalize_booking"
	PhaseIdle              Phase = "idle"
)

// Outcome summarises what a turn achieved.
type Outcome string

const (
	OutcomeSlotsSuggested   Outcome = "slots_suggested"
	OutcomeNoAvailability   Outcome = "no_availability"
	OutcomeSlotSelected     Outcome = "slot_selected"
	OutcomeSelectionUnclear Outcome = "selection_unclear"
	OutcomeBooked           Outcome = "booked"
	OutcomeAlreadyBooked    Outcome = "already_booked"
	OutcomeCommitFailed     Outcome = "commit_failed"
	OutcomeClarify          Outcome = "clarify"
	OutcomeError            Outcome = "error"
)

// Route picks the phase that follows AwaitingIntent. It is a pure function
// of the session, the fresh extraction and the raw utterance.
func Route(s models.Session, ex models.ExtractionResult, utterance string) Phase {
	if len(s.AvailableSlots) > 0 && s.SelectedSlot == nil && ai.HasSelectionSignal(utterance) {
		return PhaseConfirmSelection
	}
	if ex.Intent == models.IntentConfirm && s.SelectedSlot != nil {
		return PhaseConfirmSelection
	}
	switch ex.Intent {
	case models.IntentBook, models.IntentCheckAvailability:
		return PhaseFetchAvailability
	}
	return PhaseIdle
}

// ResolveDateRange turns a date preference into the half-open search window
// [start, end). Ranges are aligned to calendar days in now's location.
func ResolveDateRange(pref string, now time.Time) (start, end time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	p := strings.ToLower(pref)
	switch {
	case strings.Contains(p, "tomorrow"):
		return midnight.AddDate(0, 0, 1), midnight.AddDate(0, 0, 2)
	case strings.Contains(p, "today"):
		return now, midnight.AddDate(0, 0, 1)
	case strings.Contains(p, "next week"):
		return midnight.AddDate(0, 0, 7), midnight.AddDate(0, 0, 14)
	default:
		return midnight.AddDate(0, 0, 1), midnight.AddDate(0, 0, 8)
	}
}
