package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"go.uber.org/zap"
)

// Composer writes the user-facing text around a booking.
type Composer interface {
	// Acknowledge is the immediate reply returned with the correlation id.
	Acknowledge(req models.BookingRequest) string
	// ComposeConfirmation turns a successful result into confirmation text.
	ComposeConfirmation(ctx context.Context, req models.BookingRequest, result models.BookingResult) (string, error)
}

// TemplateComposer builds fixed-format replies without calling a model.
type TemplateComposer struct{}

func (TemplateComposer) Acknowledge(req models.BookingRequest) string {
	return fmt.Sprintf("Booking %s with %s for %s. I'll keep you posted here.",
		req.ServiceName, req.Provider, formatStart(req.StartTime))
}

func (TemplateComposer) ComposeConfirmation(_ context.Context, req models.BookingRequest, result models.BookingResult) (string, error) {
	service := firstNonEmpty(result.ServiceName, req.ServiceName)
	name := firstNonEmpty(result.CustomerName, req.CustomerName)
	text := fmt.Sprintf("You're all set, %s! Your %s with %s is booked for %s.",
		name, service, req.Provider, formatStart(firstNonEmpty(result.StartTime, req.StartTime)))
	if result.AppointmentID != "" {
		text += fmt.Sprintf(" Confirmation number: %s.", result.AppointmentID)
	}
	return text, nil
}

// GeminiComposer asks the model for confirmation text and falls back to the
// template when the model errors or returns nothing.
type GeminiComposer struct {
	generator TextGenerator
	fallback  TemplateComposer
	timeout   time.Duration
	logger    *zap.Logger
}

func NewGeminiComposer(generator TextGenerator, logger *zap.Logger) *GeminiComposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiComposer{generator: generator, timeout: 15 * time.Second, logger: logger}
}

func (g *GeminiComposer) Acknowledge(req models.BookingRequest) string {
	return g.fallback.Acknowledge(req)
}

func (g *GeminiComposer) ComposeConfirmation(ctx context.Context, req models.BookingRequest, result models.BookingResult) (string, error) {
	prompt, err := confirmationPrompt(req, result)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.generator.GenerateContent(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		g.logger.Warn("Confirmation generation failed, using template",
			zap.String("appointment_id", result.AppointmentID),
			zap.Error(err),
		)
		return g.fallback.ComposeConfirmation(ctx, req, result)
	}
	return strings.TrimSpace(text), nil
}

func confirmationPrompt(req models.BookingRequest, result models.BookingResult) (string, error) {
	data, err := json.Marshal(map[string]any{
		"provider":      req.Provider,
		"customerName":  firstNonEmpty(result.CustomerName, req.CustomerName),
		"serviceName":   firstNonEmpty(result.ServiceName, req.ServiceName),
		"startTime":     firstNonEmpty(result.StartTime, req.StartTime),
		"appointmentId": result.AppointmentID,
		"note":          req.Note,
	})
	if err != nil {
		return "", fmt.Errorf("marshal booking result: %w", err)
	}
	return "The appointment below was just booked. Confirm it to the customer, " +
		"mentioning the service, provider, local date and time, and the confirmation number if present.\n\n" +
		string(data), nil
}

// formatStart renders an RFC 3339 time in its own offset, or returns it untouched.
func formatStart(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("Mon, Jan 2 at 3:04 PM (MST)")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
