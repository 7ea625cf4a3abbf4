package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"bookingagent/models"

	"github.com/hibiken/asynq"
)

const TypeSendReminder = "booking:reminder"

// NewReminderTask builds the reminder task for a committed appointment. The
// task id is derived from the appointment, so enqueueing twice is rejected.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(fmt.Sprintf("reminder:%s", payload.AppointmentID)),
		asynq.MaxRetry(3),
	}

	return task, opts, nil
}

// ParseReminderTask decodes a task built by NewReminderTask.
func ParseReminderTask(task *asynq.Task) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return models.ReminderPayload{}, fmt.Errorf("invalid reminder payload: %w", err)
	}
	return p, nil
}
