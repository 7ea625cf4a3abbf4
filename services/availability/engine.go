// Package availability turns a busy-interval view of a calendar into bookable
// slots.
package availability

import (
	"time"

	"bookingagent/models"
)

const (
	DefaultOpenHour  = 9
	DefaultCloseHour = 17
	DefaultStep      = 30 * time.Minute
	DefaultLimit     = 10
)

// Options tunes the candidate grid. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	OpenHour  int
	CloseHour int
	Step      time.Duration
	Limit     int
	// AllowOverflow keeps candidates whose end runs past CloseHour.
	AllowOverflow bool
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		OpenHour:  DefaultOpenHour,
		CloseHour: DefaultCloseHour,
		Step:      DefaultStep,
		Limit:     DefaultLimit,
	}
}

// WithBusinessHours restricts candidate starts to [open, close) local hours.
func WithBusinessHours(open, close int) Option {
	return func(o *Options) {
		o.OpenHour = open
		o.CloseHour = close
	}
}

func WithGrid(step time.Duration) Option {
	return func(o *Options) { o.Step = step }
}

func WithLimit(n int) Option {
	return func(o *Options) { o.Limit = n }
}

// WithOverflowAllowed offers a slot starting near closing time even when its
// end falls after CloseHour.
func WithOverflowAllowed() Option {
	return func(o *Options) { o.AllowOverflow = true }
}

// ComputeFreeSlots walks the business-hours grid between rangeStart and
// rangeEnd and returns up to Limit free, pairwise disjoint slots of the
// requested length in chronological order. Day boundaries and business hours
// are evaluated in rangeStart's location.
func ComputeFreeSlots(rangeStart, rangeEnd time.Time, durationMinutes int, busy []models.BusyInterval, opts ...Option) []models.Slot {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if durationMinutes <= 0 || durationMinutes > models.MaxDuration || o.Limit <= 0 || o.Step <= 0 || !rangeEnd.After(rangeStart) {
		return nil
	}
	// Nothing longer than the business day can fit unless overflow is allowed.
	if !o.AllowOverflow && durationMinutes > (o.CloseHour-o.OpenHour)*60 {
		return nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	loc := rangeStart.Location()

	var (
		slots   []models.Slot
		lastEnd time.Time
	)
	for day := startOfDay(rangeStart); day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		if !isWeekday(day.Weekday()) {
			continue
		}
		open := time.Date(day.Year(), day.Month(), day.Day(), o.OpenHour, 0, 0, 0, loc)
		closing := time.Date(day.Year(), day.Month(), day.Day(), o.CloseHour, 0, 0, 0, loc)

		for t := open; t.Before(closing) && t.Before(rangeEnd); t = t.Add(o.Step) {
			// Earlier picks own the grid up to their end.
			if t.Before(rangeStart) || t.Before(lastEnd) {
				continue
			}
			end := t.Add(duration)
			if !end.After(t) {
				return slots
			}
			if !o.AllowOverflow && end.After(closing) {
				break
			}
			if overlapsAny(t, end, busy) {
				continue
			}
			slots = append(slots, models.Slot{Start: t, End: end})
			lastEnd = end
			if len(slots) == o.Limit {
				return slots
			}
		}
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []models.BusyInterval) bool {
	for _, b := range busy {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isWeekday(d time.Weekday) bool {
	return d != time.Saturday && d != time.Sunday
}
