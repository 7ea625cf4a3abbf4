package models

import (
	"slices"
	"time"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Turn is one utterance in the conversation history.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Intent is the classified purpose of an utterance.
type Intent string

const (
	IntentNone              Intent = ""
	IntentBook              Intent = "book"
	IntentCheckAvailability Intent = "check_availability"
	IntentConfirm           Intent = "confirm"
	IntentSelectSlot        Intent = "select_slot"
	IntentCasualChat        Intent = "casual_chat"
	IntentReschedule        Intent = "reschedule"
)

// KnownIntents lists every intent the classifier is allowed to answer with.
var KnownIntents = []Intent{
	IntentBook,
	IntentCheckAvailability,
	IntentConfirm,
	IntentSelectSlot,
	IntentCasualChat,
	IntentReschedule,
}

// ParseIntent maps raw classifier text to a known intent.
func ParseIntent(raw string) (Intent, bool) {
	i := Intent(raw)
	if slices.Contains(KnownIntents, i) {
		return i, true
	}
	return IntentNone, false
}

// Urgency is how pressing the user considers the request.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyFlexible Urgency = "flexible"
)

// ParseUrgency maps raw text to an urgency level, defaulting to normal.
func ParseUrgency(raw string) Urgency {
	switch Urgency(raw) {
	case UrgencyUrgent:
		return UrgencyUrgent
	case UrgencyFlexible:
		return UrgencyFlexible
	}
	return UrgencyNormal
}

const (
	// DefaultDuration is the meeting length in minutes when none was given.
	DefaultDuration = 60
	// MaxDuration caps an accepted meeting length at one day.
	MaxDuration = 24 * 60
	// DefaultMeetingType is used whenever the user never named one.
	DefaultMeetingType = "meeting"
)

// Session is the single-writer conversational state of one user interaction.
type Session struct {
	ID               string    `json:"sessionId"`
	Turns            []Turn    `json:"turns"`
	Intent           Intent    `json:"intent,omitempty"`
	DatePreference   string    `json:"datePreference,omitempty"`
	TimePreference   string    `json:"timePreference,omitempty"`
	MeetingType      string    `json:"meetingType"`
	Duration         int       `json:"duration"`
	Urgency          Urgency   `json:"urgency"`
	UserName         string    `json:"userName,omitempty"`
	AvailableSlots   []Slot    `json:"availableSlots,omitempty"`
	SelectedSlot     *Slot     `json:"selectedSlot,omitempty"`
	BookingConfirmed bool      `json:"bookingConfirmed"`
	LastBooking      *Receipt  `json:"lastBooking,omitempty"`
	Phase            string    `json:"phase,omitempty"`
	// PreferencesApplied is set once a stored preference summary has been
	// merged into this session.
	PreferencesApplied bool      `json:"preferencesApplied,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewSession returns an empty session with the defaults applied.
func NewSession(id string) Session {
	return Session{
		ID:          id,
		MeetingType: DefaultMeetingType,
		Duration:    DefaultDuration,
		Urgency:     UrgencyNormal,
	}
}

// Clone returns a deep copy so a turn can be applied without touching the
// caller's value.
func (s Session) Clone() Session {
	out := s
	out.Turns = slices.Clone(s.Turns)
	out.AvailableSlots = slices.Clone(s.AvailableSlots)
	if s.SelectedSlot != nil {
		sel := *s.SelectedSlot
		out.SelectedSlot = &sel
	}
	if s.LastBooking != nil {
		rc := *s.LastBooking
		out.LastBooking = &rc
	}
	return out
}

// Normalize repairs zero values left by older or hand-built sessions.
func (s *Session) Normalize() {
	if s.Duration <= 0 {
		s.Duration = DefaultDuration
	}
	if s.MeetingType == "" {
		s.MeetingType = DefaultMeetingType
	}
	if s.Urgency == "" {
		s.Urgency = UrgencyNormal
	}
}

// RecentTurns returns up to n of the latest turns.
func (s Session) RecentTurns(n int) []Turn {
	if len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}
