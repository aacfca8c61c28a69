package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/block-integration-api/tutorial-webchat/services/notification"
	"github.com/block-integration-api/tutorial-webchat/services/tasks"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReminderWorker processes appointment reminder tasks in-process.
type ReminderWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewReminderWorker(redisOpts asynq.RedisClientOpt, sender notification.ReminderSender, logger *zap.Logger) *ReminderWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ShutdownTimeout: 5 * time.Second,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAppointmentReminder, HandleReminderTask(sender, logger))

	return &ReminderWorker{srv: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background, retrying with backoff when redis
// is not reachable yet.
func (w *ReminderWorker) Start(ctx context.Context) error {
	const maxAttempts = 5

	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err := w.srv.Start(w.mux)
		if err == nil {
			w.logger.Info("Reminder worker started")
			return nil
		}
		w.logger.Warn("Reminder worker failed to start",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)
		if attempts == maxAttempts {
			return fmt.Errorf("reminder worker: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts*2) * time.Second):
		}
	}
	return nil
}

// Shutdown stops fetching new tasks and waits for running ones.
func (w *ReminderWorker) Shutdown() {
	w.srv.Shutdown()
	w.logger.Info("Reminder worker stopped")
}

// HandleReminderTask decodes the payload and hands it to sender. Malformed
// payloads are not retried.
func HandleReminderTask(sender notification.ReminderSender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}

		logger.Debug("Triggering reminder",
			zap.String("correlation_id", p.CorrelationID),
			zap.String("fire_date", p.FireDate),
		)
		if err := sender.SendAppointmentReminder(ctx, p); err != nil {
			logger.Warn("Failed to send reminder", zap.String("correlation_id", p.CorrelationID), zap.Error(err))
			return err
		}
		return nil
	}
}
