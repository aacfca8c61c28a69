package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"go.uber.org/zap"
)

// track is the background task for one booking.
func (s *DefaultBookingService) track(id string, req models.BookingRequest, handle *models.JobHandle, receipt models.BookingReceipt, logger *zap.Logger) {
	defer s.tasks.Done()

	outcome := s.await(id, req, handle, logger)
	terminal := s.terminalEvent(outcome, req, logger)

	s.deps.Notifier.Publish(id, terminal)
	s.pause()
	s.deps.Notifier.Close(id)

	s.finish(id, req, outcome, terminal.Message, receipt, logger)
}

// await runs the poll loop and folds every way it can end into an outcome.
func (s *DefaultBookingService) await(id string, req models.BookingRequest, handle *models.JobHandle, logger *zap.Logger) (outcome models.TerminalOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Booking task panicked", zap.Any("panic", r))
			outcome = models.Failed(MsgInternal)
		}
	}()

	onProgress := func(ev models.ProgressEvent) {
		s.deps.Notifier.Publish(id, models.Progress(ev.Message))
	}

	outcome, err := s.deps.Poller.Await(s.ctx, req, handle, onProgress)
	switch {
	case err == nil:
		return outcome
	case errors.Is(err, context.Canceled):
		logger.Warn("Booking poll cancelled", zap.Error(err))
		return models.Failed(MsgInterrupted)
	default:
		logger.Error("Booking poll failed", zap.Error(err))
		return models.Failed(MsgPollLost)
	}
}

// terminalEvent renders the single final or error event for an outcome.
func (s *DefaultBookingService) terminalEvent(outcome models.TerminalOutcome, req models.BookingRequest, logger *zap.Logger) (ev models.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Rendering terminal event panicked", zap.Any("panic", r))
			ev = models.Failure(MsgInternal)
		}
	}()

	switch outcome.Kind {
	case models.OutcomeSuccess:
		text, err := s.deps.Composer.ComposeConfirmation(s.ctx, req, *outcome.Result)
		if err != nil || text == "" {
			logger.Warn("Confirmation text unavailable", zap.Error(err))
			text = MsgConfirmedFallback
		}
		return models.Final(text)
	case models.OutcomeTimeout:
		logger.Info("Booking timed out", zap.Int64("elapsed_ms", outcome.ElapsedMs()))
		return models.Failure(fmt.Sprintf(MsgTimedOut, int(outcome.Elapsed.Round(time.Second)/time.Second)))
	default:
		return models.Failure(outcome.Reason)
	}
}

// pause gives a live subscriber time to flush the terminal event before the
// close arrives. Shutdown cuts it short.
func (s *DefaultBookingService) pause() {
	timer := time.NewTimer(s.settings.CloseGraceDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.ctx.Done():
	}
}

// finish records the outcome and queues the reminder. Failures here never
// reach the subscriber, who has already been told the outcome.
func (s *DefaultBookingService) finish(id string, req models.BookingRequest, outcome models.TerminalOutcome, message string, receipt models.BookingReceipt, logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Booking bookkeeping panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	receipt.ApplyOutcome(outcome, message)
	if err := s.deps.Receipts.Save(ctx, receipt); err != nil {
		logger.Error("Failed to update booking receipt", zap.Error(err))
	}

	if outcome.Kind != models.OutcomeSuccess || s.deps.Reminders == nil {
		return
	}
	if err := s.deps.Reminders.ScheduleAppointmentReminder(ctx, id, req, *outcome.Result); err != nil {
		logger.Warn("Failed to schedule appointment reminder", zap.Error(err))
	}
}
