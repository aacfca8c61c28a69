package booking

import (
	"context"
	"time"

	"github.com/block-integration-api/tutorial-webchat/database/repository"
	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/block-integration-api/tutorial-webchat/services/intelligence"
	"github.com/block-integration-api/tutorial-webchat/services/poller"
	"go.uber.org/zap"
)

// BookingService accepts bookings and reports their outcome asynchronously.
type BookingService interface {
	Submit(ctx context.Context, req models.BookingRequest) (*SubmitResult, error)
	Receipt(ctx context.Context, correlationID string) (*models.BookingReceipt, error)
	Shutdown(ctx context.Context) error
}

// SubmitResult is returned to the caller as soon as the upstream job exists.
type SubmitResult struct {
	CorrelationID string `json:"correlationId"`
	Reply         string `json:"reply"`
}

// JobPoller is satisfied by *poller.Poller.
type JobPoller interface {
	Submit(ctx context.Context, req models.BookingRequest) (*models.JobHandle, error)
	Await(ctx context.Context, req models.BookingRequest, handle *models.JobHandle, onProgress poller.ProgressFunc) (models.TerminalOutcome, error)
}

// Notifier is satisfied by *notifier.Registry.
type Notifier interface {
	Publish(id string, ev models.Event)
	Close(id string)
}

// ReminderScheduler is satisfied by *tasks.ReminderScheduler.
type ReminderScheduler interface {
	ScheduleAppointmentReminder(ctx context.Context, correlationID string, req models.BookingRequest, result models.BookingResult) error
}

// Deps are the collaborators of DefaultBookingService. Reminders may be nil.
type Deps struct {
	Poller    JobPoller
	Notifier  Notifier
	Composer  intelligence.Composer
	Receipts  repository.ReceiptRepository
	Reminders ReminderScheduler
	Logger    *zap.Logger
}

// Settings tune the orchestration.
type Settings struct {
	DefaultProvider string
	CloseGraceDelay time.Duration
}
