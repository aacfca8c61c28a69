package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"go.uber.org/zap"
)

// ReminderSender delivers an appointment reminder to the customer.
type ReminderSender interface {
	SendAppointmentReminder(ctx context.Context, p models.ReminderPayload) error
}

// LogReminderSender records reminders in the log. It stands in until an SMS
// gateway is wired to the customer phone number.
type LogReminderSender struct {
	logger *zap.Logger
}

func NewLogReminderSender(logger *zap.Logger) *LogReminderSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReminderSender{logger: logger}
}

func (s *LogReminderSender) SendAppointmentReminder(_ context.Context, p models.ReminderPayload) error {
	if p.CustomerPhone == "" {
		return fmt.Errorf("SendAppointmentReminder: booking %s has no customer phone", p.CorrelationID)
	}
	s.logger.Info("Appointment reminder",
		zap.String("correlation_id", p.CorrelationID),
		zap.String("appointment_id", p.AppointmentID),
		zap.String("to", p.CustomerPhone),
		zap.String("text", ReminderText(p)),
	)
	return nil
}

// ReminderText is the message body sent to the customer.
func ReminderText(p models.ReminderPayload) string {
	when := p.StartTime
	if t, err := time.Parse(time.RFC3339, p.StartTime); err == nil {
		when = t.Format("Mon, Jan 2 at 3:04 PM")
	}
	return fmt.Sprintf("Hi %s, a reminder of your %s with %s on %s.", p.CustomerName, p.ServiceName, p.Provider, when)
}
