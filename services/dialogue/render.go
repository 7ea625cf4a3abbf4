package dialogue

import (
	"fmt"
	"strings"
	"time"

	"bookingagent/models"
)

const maxSuggestions = 5

func namePart(name string) string {
	if name == "" {
		return ""
	}
	return name + ", "
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// slotLine renders one numbered suggestion, e.g.
// "2. Monday, January 06 at 10:00 AM (Tomorrow)".
func slotLine(i int, slot models.Slot, duration int, now time.Time) string {
	line := fmt.Sprintf("%d. %s", i, slot.Label())
	switch {
	case sameDay(slot.Start, now):
		line += " (Today)"
	case sameDay(slot.Start, now.AddDate(0, 0, 1)):
		line += " (Tomorrow)"
	}
	if duration != models.DefaultDuration {
		line += fmt.Sprintf(" (%d min)", duration)
	}
	return line
}

func renderSuggestions(s models.Session, offered []models.Slot, now time.Time, degraded bool) string {
	var b strings.Builder
	name := namePart(s.UserName)
	switch {
	case s.Urgency == models.UrgencyUrgent:
		fmt.Fprintf(&b, "%sI understand this is urgent. Here are the earliest available slots:", name)
	case s.TimePreference != "":
		fmt.Fprintf(&b, "%sI found these available times for your %s (you mentioned %s):", name, s.MeetingType, s.TimePreference)
	default:
		fmt.Fprintf(&b, "%sI found these available times for your %s:", name, s.MeetingType)
	}
	b.WriteString("\n\n")
	for i, slot := range offered {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(slotLine(i+1, slot, s.Duration, now))
	}
	if degraded {
		b.WriteString("\n\nI couldn't reach the calendar just now, so these times are not yet verified.")
	}
	if len(offered) == 1 {
		b.WriteString("\n\nShall I book it for you?")
	} else {
		b.WriteString("\n\nWhich one works best? Reply with the number or the time.")
	}
	return capitalize(b.String())
}

func renderNoAvailability(name string) string {
	return fmt.Sprintf("Sorry %sI don't see any available slots for that time. How about we try a different day?", namePart(name))
}

func renderSlotSelected(slot models.Slot) string {
	return fmt.Sprintf("Excellent! I've got you down for %s. Should I go ahead and book this for you?", slot.Label())
}

func renderSelectionUnclear() string {
	return "I'm not sure which time you prefer. Could you tell me the number or say something like 'the 2 PM slot'?"
}

func renderBooked(r models.Receipt) string {
	allSet := "All set!"
	if r.UserName != "" {
		allSet = fmt.Sprintf("All set %s!", r.UserName)
	}
	return fmt.Sprintf("%s Your %d-minute %s is confirmed for %s. Booking reference: %s.",
		allSet, r.Duration, r.MeetingType, r.Slot.Label(), r.AppointmentID)
}

func renderAlreadyBooked(r *models.Receipt) string {
	if r == nil {
		return "That slot is already booked. Let me know if you'd like to schedule something else."
	}
	return fmt.Sprintf("You're already booked for %s. Let me know if you'd like to schedule something else.", r.Slot.Label())
}

func renderCommitFailed(name, meetingType string) string {
	oops := "Oops!"
	if name != "" {
		oops = fmt.Sprintf("Oops %s!", name)
	}
	return fmt.Sprintf("%s Something went wrong while booking your %s. Say yes to try again, or pick a different time.", oops, meetingType)
}

func renderClarify(name string) string {
	return capitalize(fmt.Sprintf("%sI'm here to help you book an appointment. What would you like to schedule, and when?", namePart(name)))
}

func renderInternalError() string {
	return "Sorry, something went wrong on my side. Could you say that again?"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
