package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReminderScheduler queues a reminder ahead of each confirmed appointment.
type ReminderScheduler struct {
	client   Enqueuer
	leadTime time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewReminderScheduler(client Enqueuer, leadTime time.Duration, logger *zap.Logger) *ReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{client: client, leadTime: leadTime, now: time.Now, logger: logger}
}

// ScheduleAppointmentReminder enqueues the reminder for a booked appointment.
// Reminders whose fire time already passed are skipped, and a booking is
// only ever scheduled once.
func (s *ReminderScheduler) ScheduleAppointmentReminder(ctx context.Context, correlationID string, req models.BookingRequest, result models.BookingResult) error {
	startTime := result.StartTime
	if startTime == "" {
		startTime = req.StartTime
	}
	start, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		return fmt.Errorf("reminder start time %q: %w", startTime, err)
	}

	fireAt := start.Add(-s.leadTime)
	if !fireAt.After(s.now()) {
		s.logger.Debug("Reminder fire time already passed, skipping",
			zap.String("correlation_id", correlationID),
			zap.Time("fire_at", fireAt),
		)
		return nil
	}

	payload := models.ReminderPayload{
		CorrelationID: correlationID,
		AppointmentID: result.AppointmentID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Provider:      req.Provider,
		ServiceName:   req.ServiceName,
		StartTime:     startTime,
		FireDate:      fireAt.Format(time.RFC3339),
	}
	task, opts, err := NewAppointmentReminderTask(payload, fireAt)
	if err != nil {
		return fmt.Errorf("build reminder task: %w", err)
	}

	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}

	s.logger.Info("Reminder scheduled",
		zap.String("correlation_id", correlationID),
		zap.String("task_id", info.ID),
		zap.Time("fire_at", fireAt),
	)
	return nil
}
