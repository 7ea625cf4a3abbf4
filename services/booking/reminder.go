package booking

import (
	"context"
	"fmt"
	"time"

	"bookingagent/models"
	"bookingagent/services/tasks"

	"github.com/hibiken/asynq"
)

// TaskEnqueuer is the part of *asynq.Client the scheduler needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqReminderScheduler enqueues a reminder task that fires Lead before the
// appointment starts, or right away when that moment has passed.
type AsynqReminderScheduler struct {
	Client TaskEnqueuer
	Lead   time.Duration
}

func NewAsynqReminderScheduler(client TaskEnqueuer, lead time.Duration) *AsynqReminderScheduler {
	return &AsynqReminderScheduler{Client: client, Lead: lead}
}

func (s *AsynqReminderScheduler) ScheduleReminder(ctx context.Context, payload models.ReminderPayload, start time.Time) error {
	task, opts, err := tasks.NewReminderTask(payload, start.Add(-s.Lead))
	if err != nil {
		return fmt.Errorf("build reminder task: %w", err)
	}
	if _, err := s.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue reminder for %s: %w", payload.AppointmentID, err)
	}
	return nil
}
