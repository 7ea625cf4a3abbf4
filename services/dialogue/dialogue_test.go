package dialogue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"bookingagent/models"
	"bookingagent/services/booking"
	"bookingagent/services/calendar"
	ai "bookingagent/services/intelligence"
)

// Sunday, so "tomorrow" is Monday January 6.
var sundayNoon = time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)

func mondayAt(hour, minute int) time.Time {
	return time.Date(2025, time.January, 6, hour, minute, 0, 0, time.UTC)
}

type harness struct {
	orch  *Orchestrator
	cal   *calendar.MockCalendar
	prefs *booking.ShardedPreferenceStore
}

func newHarness(busy ...models.BusyInterval) *harness {
	cal := calendar.NewMockCalendar(busy...)
	prefs := booking.NewShardedPreferenceStore()
	fin := booking.NewFinalizer(cal, prefs, time.Second, nil)
	fin.Now = func() time.Time { return sundayNoon }
	fin.NewID = func() string { return "appt-1" }

	o := NewOrchestrator(ai.NewRuleExtractor(), ai.NewRuleDisambiguator(), cal, fin, nil)
	o.Preferences = prefs
	o.CalendarTimeout = time.Second
	o.Now = func() time.Time { return sundayNoon }
	return &harness{orch: o, cal: cal, prefs: prefs}
}

func (h *harness) turn(t *testing.T, s models.Session, utterance string) (TurnResult, models.Session) {
	t.Helper()
	return h.orch.ProcessTurn(context.Background(), s, utterance)
}

func TestBookingConversation(t *testing.T) {
	h := newHarness()
	in := models.NewSession("s1")

	res, s := h.turn(t, in, "book a call for tomorrow afternoon")
	if len(in.Turns) != 0 || in.AvailableSlots != nil {
		t.Fatal("ProcessTurn mutated the caller's session")
	}
	if want := []Phase{PhaseAwaitingIntent, PhaseFetchAvailability, PhaseSuggestSlots, PhaseIdle}; !equalPath(res.Path, want) {
		t.Fatalf("path = %v, want %v", res.Path, want)
	}
	if res.Outcome != OutcomeSlotsSuggested || len(res.Offered) != 5 || len(s.AvailableSlots) != 8 {
		t.Fatalf("outcome=%s offered=%d available=%d", res.Outcome, len(res.Offered), len(s.AvailableSlots))
	}
	if s.Intent != models.IntentBook || s.DatePreference != "tomorrow" || s.TimePreference != "afternoon" || s.MeetingType != "call" || s.Duration != 60 {
		t.Fatalf("session fields = %+v", s)
	}
	if !strings.Contains(res.Reply, "1. Monday, January 06 at 09:00 AM (Tomorrow)") {
		t.Fatalf("reply missing first slot:\n%s", res.Reply)
	}
	if strings.Contains(res.Reply, "6. ") {
		t.Fatalf("reply lists more than five slots:\n%s", res.Reply)
	}

	res, s = h.turn(t, s, "2")
	if res.Outcome != OutcomeSlotSelected || res.Phase() != PhaseConfirmSelection {
		t.Fatalf("outcome=%s phase=%s", res.Outcome, res.Phase())
	}
	if s.SelectedSlot == nil || !s.SelectedSlot.Start.Equal(mondayAt(10, 0)) {
		t.Fatalf("selected = %+v, want Monday 10:00", s.SelectedSlot)
	}

	res, s = h.turn(t, s, "yes")
	if res.Outcome != OutcomeBooked || !s.BookingConfirmed || res.Receipt == nil {
		t.Fatalf("outcome=%s confirmed=%v receipt=%v", res.Outcome, s.BookingConfirmed, res.Receipt)
	}
	if res.Receipt.Title != "Scheduled call" || !strings.Contains(res.Reply, "confirmed for Monday, January 06 at 10:00 AM") {
		t.Fatalf("receipt=%+v reply=%q", res.Receipt, res.Reply)
	}
	if got := h.cal.Committed(); len(got) != 1 {
		t.Fatalf("committed %d appointments, want 1", len(got))
	}
	if _, ok, _ := h.prefs.Get(context.Background(), "anonymous"); !ok {
		t.Fatal("preferences not recorded")
	}

	res, s = h.turn(t, s, "yes")
	if res.Outcome != OutcomeAlreadyBooked {
		t.Fatalf("second confirm outcome = %s", res.Outcome)
	}
	if got := h.cal.Committed(); len(got) != 1 {
		t.Fatalf("double booking: %d appointments", len(got))
	}
	if len(s.Turns) != 8 {
		t.Fatalf("turns = %d, want 8", len(s.Turns))
	}
}

func TestEmptyAvailability(t *testing.T) {
	h := newHarness(models.BusyInterval{Start: mondayAt(0, 0), End: mondayAt(23, 59)})

	res, s := h.turn(t, models.NewSession("s1"), "book a meeting tomorrow")
	if res.Outcome != OutcomeNoAvailability || res.Final() != PhaseIdle {
		t.Fatalf("outcome=%s final=%s", res.Outcome, res.Final())
	}
	if s.SelectedSlot != nil || len(s.AvailableSlots) != 0 {
		t.Fatalf("session = %+v", s)
	}
	if !strings.Contains(res.Reply, "different day") {
		t.Fatalf("reply = %q", res.Reply)
	}
}

func TestCommitFailureKeepsSelection(t *testing.T) {
	h := newHarness()
	_, s := h.turn(t, models.NewSession("s1"), "I'm Dana, book a call tomorrow")
	_, s = h.turn(t, s, "the first one")
	selected := *s.SelectedSlot

	h.cal.SetFailures(nil, errors.New("calendar down"))
	res, s := h.turn(t, s, "yes")
	if res.Outcome != OutcomeCommitFailed || !res.Retryable {
		t.Fatalf("outcome=%s retryable=%v", res.Outcome, res.Retryable)
	}
	if s.BookingConfirmed {
		t.Fatal("BookingConfirmed set after a failed commit")
	}
	if s.SelectedSlot == nil || !s.SelectedSlot.Equal(selected) {
		t.Fatalf("selection changed to %+v", s.SelectedSlot)
	}
	if !strings.Contains(res.Reply, "try again") || !strings.Contains(res.Reply, "Dana") {
		t.Fatalf("reply = %q", res.Reply)
	}

	h.cal.SetFailures(nil, nil)
	res, s = h.turn(t, s, "yes")
	if res.Outcome != OutcomeBooked || !s.BookingConfirmed {
		t.Fatalf("retry outcome=%s", res.Outcome)
	}
	if res.Receipt.Title != "Call - Dana" {
		t.Fatalf("title = %q", res.Receipt.Title)
	}
}

func TestDegradedAvailability(t *testing.T) {
	h := newHarness()
	h.cal.SetFailures(errors.New("timeout"), nil)

	res, s := h.turn(t, models.NewSession("s1"), "any free slots tomorrow?")
	if !res.Degraded || res.Outcome != OutcomeSlotsSuggested {
		t.Fatalf("degraded=%v outcome=%s", res.Degraded, res.Outcome)
	}
	if len(s.AvailableSlots) != 8 {
		t.Fatalf("available = %d", len(s.AvailableSlots))
	}
	if !strings.Contains(res.Reply, "not yet verified") {
		t.Fatalf("reply = %q", res.Reply)
	}
}

func TestUnclearSelectionKeepsCandidates(t *testing.T) {
	h := newHarness()
	_, s := h.turn(t, models.NewSession("s1"), "book a call tomorrow")
	res, s := h.turn(t, s, "the 9th")
	if res.Outcome != OutcomeSelectionUnclear {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if s.SelectedSlot != nil || len(s.AvailableSlots) != 8 {
		t.Fatalf("session = %+v", s)
	}
}

func TestRenderedIndexSelectsThatSlot(t *testing.T) {
	h := newHarness()
	first, s0 := h.turn(t, models.NewSession("s1"), "book a call tomorrow")
	for i, want := range first.Offered {
		res, s := h.turn(t, s0, strconv.Itoa(i+1))
		if res.Outcome != OutcomeSlotSelected || !s.SelectedSlot.Equal(want) {
			t.Fatalf("index %d selected %+v, want %s", i+1, s.SelectedSlot, want.Label())
		}
	}
}

func TestNewRequestClearsSelection(t *testing.T) {
	h := newHarness()
	_, s := h.turn(t, models.NewSession("s1"), "book a call tomorrow")
	_, s = h.turn(t, s, "3")
	if s.SelectedSlot == nil {
		t.Fatal("no selection")
	}
	res, s := h.turn(t, s, "actually, what about next week")
	if res.Phase() != PhaseSuggestSlots || s.SelectedSlot != nil || s.BookingConfirmed {
		t.Fatalf("phase=%s selected=%v", res.Phase(), s.SelectedSlot)
	}
	if !s.AvailableSlots[0].Start.Equal(time.Date(2025, time.January, 13, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("first slot = %s, want Monday of next week", s.AvailableSlots[0].Label())
	}
}

func TestStickyFields(t *testing.T) {
	h := newHarness()
	_, s := h.turn(t, models.NewSession("s1"), "book a 30 minute call next week, it's urgent")
	res, s := h.turn(t, s, "what about tomorrow")
	if s.Duration != 30 || s.MeetingType != "call" || s.Urgency != models.UrgencyUrgent || s.DatePreference != "tomorrow" {
		t.Fatalf("session = %+v", s)
	}
	if !strings.Contains(res.Reply, "(30 min)") || !strings.Contains(res.Reply, "urgent") {
		t.Fatalf("reply = %q", res.Reply)
	}
}

func TestOversizedDurationFallsBackToDefault(t *testing.T) {
	h := newHarness()
	res, s := h.turn(t, models.NewSession("s1"), "book a 200000000 minute meeting tomorrow")
	if res.Outcome != OutcomeSlotsSuggested || s.Duration != models.DefaultDuration {
		t.Fatalf("outcome=%s duration=%d", res.Outcome, s.Duration)
	}
	for _, slot := range s.AvailableSlots {
		if !slot.End.After(slot.Start) || slot.Minutes() != models.DefaultDuration {
			t.Fatalf("bad slot %v - %v", slot.Start, slot.End)
		}
	}

	_, s = h.turn(t, s, "1")
	res, _ = h.turn(t, s, "yes")
	if res.Outcome != OutcomeBooked {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	committed := h.cal.Committed()
	if len(committed) != 1 || !committed[0].End.After(committed[0].Start) {
		t.Fatalf("committed = %+v", committed)
	}
}

func TestPreferenceReuse(t *testing.T) {
	h := newHarness()
	_ = h.prefs.Upsert(context.Background(), models.PreferenceSummary{Key: "dana", PreferredDuration: 30, PreferredMeetingType: "demo"})

	res, s := h.turn(t, models.NewSession("s1"), "I'm Dana, can you book something tomorrow")
	if s.Duration != 30 || s.MeetingType != "demo" || !s.PreferencesApplied {
		t.Fatalf("session = %+v", s)
	}
	if len(s.AvailableSlots) != 10 || !s.AvailableSlots[1].Start.Equal(mondayAt(9, 30)) {
		t.Fatalf("slots = %+v", s.AvailableSlots)
	}
	if !strings.HasPrefix(res.Reply, "Dana, ") {
		t.Fatalf("reply = %q", res.Reply)
	}

	// Stated values win over stored ones.
	_, s = h.turn(t, models.NewSession("s2"), "I'm Dana, book a 45 minute call tomorrow")
	if s.Duration != 45 || s.MeetingType != "call" {
		t.Fatalf("session = %+v", s)
	}
}

func TestClarifyWhenNothingToDo(t *testing.T) {
	h := newHarness()
	res, s := h.turn(t, models.NewSession("s1"), "yes")
	if res.Outcome != OutcomeClarify || res.Phase() != PhaseIdle {
		t.Fatalf("outcome=%s phase=%s", res.Outcome, res.Phase())
	}
	if len(s.Turns) != 2 || s.Turns[1].Speaker != models.SpeakerAgent {
		t.Fatalf("turns = %+v", s.Turns)
	}
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(context.Context, string, []models.Turn) models.ExtractionResult {
	panic("boom")
}

func TestProcessTurnRecoversPanics(t *testing.T) {
	h := newHarness()
	h.orch.Extractor = panickingExtractor{}

	in := models.NewSession("s1")
	res, s := h.turn(t, in, "book a call")
	if res.Outcome != OutcomeError || res.Reply == "" {
		t.Fatalf("res = %+v", res)
	}
	if len(s.Turns) != 2 || len(in.Turns) != 0 {
		t.Fatalf("turns out=%d in=%d", len(s.Turns), len(in.Turns))
	}
}

func TestRoute(t *testing.T) {
	slot := models.Slot{Start: mondayAt(9, 0), End: mondayAt(10, 0)}
	withSlots := models.Session{AvailableSlots: []models.Slot{slot}}
	selected := models.Session{AvailableSlots: []models.Slot{slot}, SelectedSlot: &slot}

	tests := []struct {
		name      string
		session   models.Session
		intent    models.Intent
		utterance string
		want      Phase
	}{
		{"number picks slot", withSlots, models.IntentBook, "2", PhaseConfirmSelection},
		{"clock picks slot", withSlots, models.IntentBook, "the 3 pm one", PhaseConfirmSelection},
		{"ordinal picks slot", withSlots, models.IntentCasualChat, "first please", PhaseConfirmSelection},
		{"confirm with selection", selected, models.IntentConfirm, "yes", PhaseConfirmSelection},
		{"confirm without selection", models.Session{}, models.IntentConfirm, "yes", PhaseIdle},
		{"book", models.Session{}, models.IntentBook, "book a call", PhaseFetchAvailability},
		{"availability", withSlots, models.IntentCheckAvailability, "anything next week", PhaseFetchAvailability},
		{"selection signal after selection", selected, models.IntentBook, "3pm instead", PhaseFetchAvailability},
		{"chat", models.Session{}, models.IntentCasualChat, "how are you", PhaseIdle},
		{"reschedule", models.Session{}, models.IntentReschedule, "move it", PhaseIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(tt.session, models.ExtractionResult{Intent: tt.intent}, tt.utterance)
			if got != tt.want {
				t.Fatalf("Route = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveDateRange(t *testing.T) {
	now := time.Date(2025, time.January, 5, 15, 30, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		pref       string
		start, end time.Time
	}{
		{"tomorrow", day(6), day(7)},
		{"Tomorrow morning", day(6), day(7)},
		{"today", now, day(6)},
		{"next week", day(12), day(19)},
		{"", day(6), day(13)},
		{"friday", day(6), day(13)},
	}
	for _, tt := range tests {
		start, end := ResolveDateRange(tt.pref, now)
		if !start.Equal(tt.start) || !end.Equal(tt.end) {
			t.Errorf("ResolveDateRange(%q) = [%s, %s), want [%s, %s)", tt.pref, start, end, tt.start, tt.end)
		}
	}
}

func equalPath(a, b []Phase) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
