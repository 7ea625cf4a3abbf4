package calendar

import (
	"context"
	"slices"
	"sync"
	"time"

	"bookingagent/models"
)

// MockCalendar is an in-memory calendar. Committed appointments become busy
// intervals. QueryErr and CommitErr inject failures.
type MockCalendar struct {
	mu        sync.Mutex
	busy      []models.BusyInterval
	committed []models.Appointment

	QueryErr  error
	CommitErr error
}

func NewMockCalendar(busy ...models.BusyInterval) *MockCalendar {
	return &MockCalendar{busy: slices.Clone(busy)}
}

func (m *MockCalendar) QueryBusyIntervals(ctx context.Context, start, end time.Time) ([]models.BusyInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	var out []models.BusyInterval
	for _, b := range m.busy {
		if b.Start.Before(end) && b.End.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MockCalendar) CommitAppointment(ctx context.Context, appt models.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.committed = append(m.committed, appt)
	m.busy = append(m.busy, models.BusyInterval{Start: appt.Start, End: appt.End})
	return nil
}

// SetFailures swaps the injected errors under the lock.
func (m *MockCalendar) SetFailures(queryErr, commitErr error) {
	m.mu.Lock()
	m.QueryErr, m.CommitErr = queryErr, commitErr
	m.mu.Unlock()
}

// Committed returns a copy of every appointment written so far.
func (m *MockCalendar) Committed() []models.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.committed)
}
