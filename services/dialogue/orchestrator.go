package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookingagent/models"
	"bookingagent/services/availability"
	"bookingagent/services/booking"
	"bookingagent/services/calendar"
	ai "bookingagent/services/intelligence"

	"go.uber.org/zap"
)

// Committer writes a confirmed selection. *booking.Finalizer satisfies it.
type Committer interface {
	Commit(ctx context.Context, slot models.Slot, meetingType string, duration int, userName string) (models.Receipt, error)
}

// Orchestrator drives a session through one turn at a time. It holds no
// per-session state; callers serialize turns for the same session.
type Orchestrator struct {
	Extractor     ai.Extractor
	Disambiguator ai.Disambiguator
	Calendar      calendar.Calendar
	Finalizer     Committer
	// Preferences is optional; when set, a returning user's last duration
	// and meeting type are reused.
	Preferences booking.PreferenceStore

	CalendarTimeout time.Duration
	Location        *time.Location
	EngineOptions   []availability.Option
	Logger          *zap.Logger
	Now             func() time.Time
}

func NewOrchestrator(extractor ai.Extractor, disambiguator ai.Disambiguator, cal calendar.Calendar, finalizer Committer, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		Extractor:     extractor,
		Disambiguator: disambiguator,
		Calendar:      cal,
		Finalizer:     finalizer,
		Location:      time.UTC,
		Logger:        logger,
		Now:           time.Now,
	}
}

// ProcessTurn applies one user utterance to a copy of in and returns the
// reply with the updated copy. It never fails: internal errors become a
// generic reply and leave the session as it was, apart from the two new turns.
func (o *Orchestrator) ProcessTurn(ctx context.Context, in models.Session, utterance string) (res TurnResult, out models.Session) {
	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("dialogue: turn panicked",
				zap.String("sessionId", in.ID),
				zap.Any("panic", r))
			res = TurnResult{
				Reply:   renderInternalError(),
				Path:    []Phase{PhaseAwaitingIntent, PhaseIdle},
				Outcome: OutcomeError,
			}
			out = in.Clone()
			out.Turns = append(out.Turns,
				models.Turn{Speaker: models.SpeakerUser, Text: utterance},
				models.Turn{Speaker: models.SpeakerAgent, Text: res.Reply})
		}
	}()

	s := in.Clone()
	s.Normalize()
	history := s.RecentTurns(3)
	s.Turns = append(s.Turns, models.Turn{Speaker: models.SpeakerUser, Text: utterance})

	ex := o.Extractor.Extract(ctx, utterance, history)
	s = applyExtraction(s, ex)
	s = o.applyPreferences(ctx, s, ex)

	res = TurnResult{Path: []Phase{PhaseAwaitingIntent}, Extraction: ex}
	phase := Route(s, ex, utterance)
	o.Logger.Debug("dialogue: routed",
		zap.String("sessionId", s.ID),
		zap.String("intent", string(ex.Intent)),
		zap.String("source", ex.Source),
		zap.String("phase", string(phase)))

	switch phase {
	case PhaseFetchAvailability:
		s, res = o.fetchAndSuggest(ctx, s, res)
	case PhaseConfirmSelection:
		s, res = o.confirmSelection(ctx, s, ex, utterance, res)
	default:
		res.Reply = renderClarify(s.UserName)
		res.Outcome = OutcomeClarify
	}
	res.Path = append(res.Path, PhaseIdle)
	res.SelectedSlot = s.SelectedSlot

	s.Phase = string(res.Phase())
	s.Turns = append(s.Turns, models.Turn{Speaker: models.SpeakerAgent, Text: res.Reply})
	return res, s
}

// applyExtraction merges fresh fields into the session. Fields the user did
// not mention keep their earlier values.
func applyExtraction(s models.Session, ex models.ExtractionResult) models.Session {
	s.Intent = ex.Intent
	if ex.Date != "" {
		s.DatePreference = ex.Date
	}
	if ex.Time != "" {
		s.TimePreference = ex.Time
	}
	if ex.MeetingType != "" {
		s.MeetingType = ex.MeetingType
	}
	if ex.DurationSpecified && ex.Duration > 0 {
		s.Duration = ex.Duration
	}
	if ex.Urgency != "" && ex.Urgency != models.UrgencyNormal {
		s.Urgency = ex.Urgency
	}
	if ex.UserName != "" {
		s.UserName = ex.UserName
	}
	return s
}

func (o *Orchestrator) applyPreferences(ctx context.Context, s models.Session, ex models.ExtractionResult) models.Session {
	if o.Preferences == nil || s.UserName == "" || s.PreferencesApplied {
		return s
	}
	summary, ok, err := o.Preferences.Get(ctx, booking.PreferenceKey(s.UserName))
	if err != nil {
		o.Logger.Warn("dialogue: preference lookup failed", zap.String("user", s.UserName), zap.Error(err))
		return s
	}
	if !ok {
		return s
	}
	if !ex.DurationSpecified && s.Duration == models.DefaultDuration && summary.PreferredDuration > 0 {
		s.Duration = summary.PreferredDuration
	}
	if ex.MeetingType == "" && s.MeetingType == models.DefaultMeetingType && summary.PreferredMeetingType != "" {
		s.MeetingType = summary.PreferredMeetingType
	}
	s.PreferencesApplied = true
	return s
}

func (o *Orchestrator) fetchAndSuggest(ctx context.Context, s models.Session, res TurnResult) (models.Session, TurnResult) {
	res.Path = append(res.Path, PhaseFetchAvailability)
	now := o.now()
	start, end := ResolveDateRange(s.DatePreference, now)

	busy, err := o.queryBusy(ctx, start, end)
	if err != nil {
		o.Logger.Warn("dialogue: calendar unavailable, offering unverified slots",
			zap.String("sessionId", s.ID), zap.Error(err))
		busy = nil
		res.Degraded = true
	}
	s.AvailableSlots = availability.ComputeFreeSlots(start, end, s.Duration, busy, o.EngineOptions...)
	s.SelectedSlot = nil
	s.BookingConfirmed = false

	res.Path = append(res.Path, PhaseSuggestSlots)
	if len(s.AvailableSlots) == 0 {
		res.Reply = renderNoAvailability(s.UserName)
		res.Outcome = OutcomeNoAvailability
		return s, res
	}
	offered := s.AvailableSlots
	if len(offered) > maxSuggestions {
		offered = offered[:maxSuggestions]
	}
	res.Offered = append([]models.Slot(nil), offered...)
	res.Reply = renderSuggestions(s, offered, now, res.Degraded)
	res.Outcome = OutcomeSlotsSuggested
	return s, res
}

func (o *Orchestrator) queryBusy(ctx context.Context, start, end time.Time) ([]models.BusyInterval, error) {
	if o.Calendar == nil {
		return nil, errors.New("no calendar configured")
	}
	if o.CalendarTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.CalendarTimeout)
		defer cancel()
	}
	busy, err := o.Calendar.QueryBusyIntervals(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("query busy intervals: %w", err)
	}
	return busy, nil
}

func (o *Orchestrator) confirmSelection(ctx context.Context, s models.Session, ex models.ExtractionResult, utterance string, res TurnResult) (models.Session, TurnResult) {
	res.Path = append(res.Path, PhaseConfirmSelection)

	if s.SelectedSlot != nil && ex.Intent == models.IntentConfirm {
		return o.finalize(ctx, s, res)
	}

	slot, ok := o.Disambiguator.Resolve(ctx, utterance, s.AvailableSlots)
	if !ok {
		res.Reply = renderSelectionUnclear()
		res.Outcome = OutcomeSelectionUnclear
		return s, res
	}
	s.SelectedSlot = &slot
	res.Reply = renderSlotSelected(slot)
	res.Outcome = OutcomeSlotSelected
	return s, res
}

func (o *Orchestrator) finalize(ctx context.Context, s models.Session, res TurnResult) (models.Session, TurnResult) {
	res.Path = append(res.Path, PhaseFinalizeBooking)
	if s.BookingConfirmed {
		res.Reply = renderAlreadyBooked(s.LastBooking)
		res.Outcome = OutcomeAlreadyBooked
		res.Receipt = s.LastBooking
		return s, res
	}

	slot := *s.SelectedSlot
	receipt, err := o.Finalizer.Commit(ctx, slot, s.MeetingType, slot.Minutes(), s.UserName)
	if err != nil {
		var ce *booking.CommitError
		res.Retryable = !errors.As(err, &ce) || ce.Retryable
		res.Reply = renderCommitFailed(s.UserName, s.MeetingType)
		res.Outcome = OutcomeCommitFailed
		return s, res
	}

	s.BookingConfirmed = true
	s.LastBooking = &receipt
	res.Receipt = &receipt
	res.Reply = renderBooked(receipt)
	res.Outcome = OutcomeBooked
	return s, res
}

func (o *Orchestrator) now() time.Time {
	now := time.Now()
	if o.Now != nil {
		now = o.Now()
	}
	if o.Location != nil {
		now = now.In(o.Location)
	}
	return now
}
