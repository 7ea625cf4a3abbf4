package cron

import (
	"context"
	"time"

	"bookingagent/config"
	"bookingagent/models"
	"bookingagent/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Notifier delivers a due booking reminder.
type Notifier interface {
	NotifyReminder(ctx context.Context, p models.ReminderPayload) error
}

// LogNotifier writes reminders to the log. It is the default sink while no
// outbound channel is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) NotifyReminder(_ context.Context, p models.ReminderPayload) error {
	n.Logger.Info("reminder due",
		zap.String("appointmentId", p.AppointmentID),
		zap.String("user", p.UserName),
		zap.String("title", p.Title),
		zap.Time("start", p.Start))
	return nil
}

// RedisOpt is the asynq connection for the reminder queue.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitReminderWorker starts the reminder worker in the background and
// returns the server so the caller can shut it down.
func InitReminderWorker(notifier Notifier, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(notifier, logger))

	go func() {
		logger.Info("reminder worker starting")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Warn("reminder worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("reminder worker gave up; reminders will not be delivered")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func HandleReminderTask(notifier Notifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReminderTask(task)
		if err != nil {
			logger.Warn("reminder: dropping task", zap.Error(err))
			// Retrying a malformed payload cannot succeed.
			return asynq.SkipRetry
		}
		if err := notifier.NotifyReminder(ctx, p); err != nil {
			logger.Warn("reminder: delivery failed", zap.String("appointmentId", p.AppointmentID), zap.Error(err))
			return err
		}
		return nil
	}
}
