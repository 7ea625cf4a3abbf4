// Package booking turns a selected slot into a committed appointment and
// remembers what each user booked last.
package booking

import (
	"context"
	"time"

	"bookingagent/models"
)

// PreferenceStore keeps one PreferenceSummary per user key. Implementations
// are safe for concurrent use.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (models.PreferenceSummary, bool, error)
	Upsert(ctx context.Context, summary models.PreferenceSummary) error
}

// ReminderScheduler arranges a reminder ahead of a committed appointment.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, payload models.ReminderPayload, start time.Time) error
}
