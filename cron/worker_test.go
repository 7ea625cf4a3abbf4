package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookingagent/models"
	"bookingagent/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	got []models.ReminderPayload
	err error
}

func (r *recordingNotifier) NotifyReminder(_ context.Context, p models.ReminderPayload) error {
	r.got = append(r.got, p)
	return r.err
}

func TestHandleReminderTask(t *testing.T) {
	start := time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)
	task, _, err := tasks.NewReminderTask(models.ReminderPayload{AppointmentID: "a1", Title: "Call - Dana", Start: start}, start.Add(-15*time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	n := &recordingNotifier{}
	if err := HandleReminderTask(n, zap.NewNop())(context.Background(), task); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(n.got) != 1 || n.got[0].AppointmentID != "a1" || !n.got[0].Start.Equal(start) {
		t.Fatalf("notified = %+v", n.got)
	}
}

func TestHandleReminderTaskErrors(t *testing.T) {
	bad := asynq.NewTask(tasks.TypeSendReminder, []byte("{not json"))
	err := HandleReminderTask(&recordingNotifier{}, zap.NewNop())(context.Background(), bad)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload err = %v, want SkipRetry", err)
	}

	task, _, _ := tasks.NewReminderTask(models.ReminderPayload{AppointmentID: "a2"}, time.Now())
	boom := errors.New("smtp down")
	err = HandleReminderTask(&recordingNotifier{err: boom}, zap.NewNop())(context.Background(), task)
	if !errors.Is(err, boom) {
		t.Fatalf("delivery err = %v", err)
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{Logger: zap.NewNop()}).NotifyReminder(context.Background(), models.ReminderPayload{}); err != nil {
		t.Fatal(err)
	}
}
