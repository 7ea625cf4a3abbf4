package dialogue

import "bookingagent/models"

// TurnResult is everything a caller needs to answer the user.
type TurnResult struct {
	Reply        string
	Path         []Phase
	Outcome      Outcome
	Offered      []models.Slot
	SelectedSlot *models.Slot
	Receipt      *models.Receipt
	Retryable    bool
	Degraded     bool
	Extraction   models.ExtractionResult
}

// Phase is the last phase that did work this turn; Idle when nothing but
// routing happened.
func (r TurnResult) Phase() Phase {
	for i := len(r.Path) - 1; i >= 0; i-- {
		if p := r.Path[i]; p != PhaseIdle && p != PhaseAwaitingIntent {
			return p
		}
	}
	return PhaseIdle
}

// Final is the state the machine rests in after the turn.
func (r TurnResult) Final() Phase {
	if len(r.Path) == 0 {
		return PhaseIdle
	}
	return r.Path[len(r.Path)-1]
}
