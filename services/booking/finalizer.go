package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookingagent/models"
	"bookingagent/services/calendar"
	"bookingagent/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Finalizer commits a selected slot to the calendar. Preferences and
// Reminders are optional.
type Finalizer struct {
	Calendar    calendar.Calendar
	Preferences PreferenceStore
	Reminders   ReminderScheduler
	Timeout     time.Duration
	Logger      *zap.Logger

	Now   func() time.Time
	NewID func() string
}

func NewFinalizer(cal calendar.Calendar, prefs PreferenceStore, timeout time.Duration, logger *zap.Logger) *Finalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finalizer{
		Calendar:    cal,
		Preferences: prefs,
		Timeout:     timeout,
		Logger:      logger,
		Now:         time.Now,
		NewID:       uuid.NewString,
	}
}

// Commit writes the appointment and returns its receipt. Any calendar
// failure, including a timeout, is returned as a retryable *CommitError. A
// slot that does not end after it starts is rejected without a retry.
func (f *Finalizer) Commit(ctx context.Context, slot models.Slot, meetingType string, duration int, userName string) (models.Receipt, error) {
	if !slot.End.After(slot.Start) {
		return models.Receipt{}, &CommitError{
			Code:    "invalidSlot",
			Message: fmt.Sprintf("slot ends at %s, not after its start %s", slot.End.Format(time.RFC3339), slot.Start.Format(time.RFC3339)),
		}
	}
	if meetingType == "" {
		meetingType = models.DefaultMeetingType
	}
	if duration <= 0 {
		duration = slot.Minutes()
	}
	now := f.now()
	appt := models.Appointment{
		ID:          f.newID(),
		Start:       slot.Start,
		End:         slot.End,
		Title:       Title(meetingType, userName),
		Description: Description(meetingType, duration),
		CreatedAt:   now,
	}

	commitCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	if err := f.Calendar.CommitAppointment(commitCtx, appt); err != nil {
		f.Logger.Warn("booking: commit failed",
			zap.String("appointmentId", appt.ID),
			zap.Time("start", slot.Start),
			zap.Error(err))
		return models.Receipt{}, NewCommitError("calendar rejected the appointment", err)
	}

	receipt := models.Receipt{
		AppointmentID: appt.ID,
		Slot:          slot,
		Title:         appt.Title,
		Description:   appt.Description,
		MeetingType:   meetingType,
		Duration:      duration,
		UserName:      userName,
		BookedAt:      now,
	}
	f.Logger.Info("booking: appointment committed",
		zap.String("appointmentId", appt.ID),
		zap.String("title", appt.Title),
		zap.Time("start", slot.Start))

	// The appointment exists at this point; follow-up failures are only logged.
	f.rememberPreferences(ctx, receipt)
	f.scheduleReminder(ctx, receipt)
	return receipt, nil
}

func (f *Finalizer) rememberPreferences(ctx context.Context, r models.Receipt) {
	if f.Preferences == nil {
		return
	}
	summary := models.PreferenceSummary{
		Key:                  PreferenceKey(r.UserName),
		PreferredDuration:    r.Duration,
		PreferredMeetingType: r.MeetingType,
		LastBooking:          r.BookedAt,
		UpdatedAt:            r.BookedAt,
	}
	if err := f.Preferences.Upsert(ctx, summary); err != nil {
		f.Logger.Warn("booking: failed to store preferences", zap.String("key", summary.Key), zap.Error(err))
	}
}

func (f *Finalizer) scheduleReminder(ctx context.Context, r models.Receipt) {
	if f.Reminders == nil {
		return
	}
	payload := models.ReminderPayload{
		AppointmentID: r.AppointmentID,
		UserName:      r.UserName,
		Title:         r.Title,
		Start:         r.Slot.Start,
	}
	if err := f.Reminders.ScheduleReminder(ctx, payload, r.Slot.Start); err != nil {
		f.Logger.Warn("booking: failed to schedule reminder", zap.String("appointmentId", r.AppointmentID), zap.Error(err))
	}
}

func (f *Finalizer) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Finalizer) newID() string {
	if f.NewID != nil {
		return f.NewID()
	}
	return uuid.NewString()
}

// Title is "<Type> - <Name>", or "Scheduled <type>" without a name.
func Title(meetingType, userName string) string {
	if userName == "" {
		return "Scheduled " + meetingType
	}
	return fmt.Sprintf("%s - %s", cases.Title(language.English).String(meetingType), userName)
}

func Description(meetingType string, duration int) string {
	return fmt.Sprintf("%d-minute %s booked via scheduling assistant", duration, meetingType)
}

// PreferenceKey maps a user name onto its preference key. Sessions without a
// name share the anonymous key.
func PreferenceKey(userName string) string {
	key := strings.ToLower(strings.TrimSpace(userName))
	if key == "" {
		return utils.AnonymousUser
	}
	return key
}
