// Package calendar is the busy-interval view of the calendar backend and the
// place confirmed appointments are written to.
package calendar

import (
	"context"
	"time"

	"bookingagent/models"
)

// Calendar is the external calendar collaborator.
type Calendar interface {
	// QueryBusyIntervals returns the commitments overlapping [start, end).
	QueryBusyIntervals(ctx context.Context, start, end time.Time) ([]models.BusyInterval, error)
	// CommitAppointment writes a confirmed appointment.
	CommitAppointment(ctx context.Context, appt models.Appointment) error
}
