package models

import "time"

// Slot is a concrete candidate appointment window. Slots are values and are
// never modified once offered.
type Slot struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// Equal compares two slots by exact start and end instants.
func (s Slot) Equal(o Slot) bool {
	return s.Start.Equal(o.Start) && s.End.Equal(o.End)
}

// Overlaps reports whether the half-open windows [s.Start, s.End) and
// [o.Start, o.End) intersect.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && s.End.After(o.Start)
}

// Minutes is the slot length in whole minutes.
func (s Slot) Minutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

// BusyInterval is an existing calendar commitment as reported by the calendar
// backend, already expressed in the reference timezone.
type BusyInterval struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// SlotLabelLayout renders a slot start the way it is offered to users,
// e.g. "Monday, January 06 at 09:00 AM".
const SlotLabelLayout = "Monday, January 02 at 03:04 PM"

// Label formats the slot start with SlotLabelLayout.
func (s Slot) Label() string {
	return s.Start.Format(SlotLabelLayout)
}
