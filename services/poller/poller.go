package poller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/block-integration-api/tutorial-webchat/services/actions"
	"go.uber.org/zap"
)

// DefaultFailureReason is used when the provider reports an error without a message.
const DefaultFailureReason = "The booking provider could not complete the request."

// ProgressFunc receives each newly observed status line. It runs on the poll
// loop and must hand off rather than block.
type ProgressFunc func(models.ProgressEvent)

// Poller turns the upstream submit + status API into progress events and one
// terminal outcome per booking.
type Poller struct {
	client      actions.Client
	interval    time.Duration
	maxAttempts int
	logger      *zap.Logger
}

func New(client actions.Client, opts ...Option) *Poller {
	p := &Poller{
		client:      client,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit sends the booking upstream. Any failure to obtain a job id is a
// submission failure and no poll loop should be started.
func (p *Poller) Submit(ctx context.Context, req models.BookingRequest) (*models.JobHandle, error) {
	jobID, err := p.client.SubmitBooking(ctx, req)
	if err != nil {
		p.logger.Warn("Booking submission failed", zap.Error(err))
		return nil, newSubmissionError("no job id from actions api", err)
	}
	return &models.JobHandle{JobID: jobID, SubmittedAt: time.Now()}, nil
}

// Await polls the job until it reaches a terminal status or the attempt
// ceiling runs out. A failed status read ends the loop with ErrPollTransport.
func (p *Poller) Await(ctx context.Context, req models.BookingRequest, handle *models.JobHandle, onProgress ProgressFunc) (models.TerminalOutcome, error) {
	logger := p.logger.With(zap.String("job_id", handle.JobID))
	start := time.Now()

	var watermark time.Time
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(p.interval)
		}
		select {
		case <-ctx.Done():
			return models.TerminalOutcome{}, newTransportError("poll loop cancelled", ctx.Err())
		case <-timer.C:
		}

		status, err := p.client.JobStatus(ctx, handle.JobID)
		if err != nil {
			logger.Warn("Job status read failed", zap.Int("attempt", attempt), zap.Error(err))
			return models.TerminalOutcome{}, newTransportError(fmt.Sprintf("attempt %d", attempt), err)
		}

		watermark = forwardNewEvents(status.RecentEvents, watermark, onProgress)

		switch status.Status {
		case models.JobStatusSuccess:
			logger.Info("Job succeeded", zap.Int("attempt", attempt))
			return models.Succeeded(normalizeResult(status.Result, req)), nil
		case models.JobStatusError:
			reason := strings.TrimSpace(status.ErrorMessage)
			if reason == "" {
				reason = DefaultFailureReason
			}
			logger.Info("Job failed", zap.Int("attempt", attempt), zap.String("reason", reason))
			return models.Failed(reason), nil
		case models.JobStatusQueued, models.JobStatusInProgress:
			logger.Debug("Job pending", zap.Int("attempt", attempt), zap.String("status", status.Status))
		default:
			logger.Debug("Unknown job status, still polling", zap.Int("attempt", attempt), zap.String("status", status.Status))
		}
	}

	elapsed := time.Since(start)
	logger.Info("Job poll ceiling reached", zap.Int("attempts", p.maxAttempts), zap.Duration("elapsed", elapsed))
	return models.TimedOut(elapsed), nil
}

// SubmitAndAwait submits and then polls the job to completion.
func (p *Poller) SubmitAndAwait(ctx context.Context, req models.BookingRequest, onProgress ProgressFunc) (models.TerminalOutcome, error) {
	handle, err := p.Submit(ctx, req)
	if err != nil {
		return models.TerminalOutcome{}, err
	}
	return p.Await(ctx, req, handle, onProgress)
}

// forwardNewEvents emits events strictly newer than the watermark and returns
// the advanced watermark. Events without a message still move it.
func forwardNewEvents(events []models.JobEvent, watermark time.Time, onProgress ProgressFunc) time.Time {
	for _, ev := range events {
		if !ev.CreatedAt.After(watermark) {
			continue
		}
		watermark = ev.CreatedAt
		msg := strings.TrimSpace(ev.Message)
		if msg == "" || onProgress == nil {
			continue
		}
		onProgress(models.ProgressEvent{Timestamp: ev.CreatedAt, Message: msg})
	}
	return watermark
}

// normalizeResult maps the provider payload onto BookingResult, falling back
// to the request for echoed fields.
func normalizeResult(payload map[string]any, req models.BookingRequest) models.BookingResult {
	return models.BookingResult{
		AppointmentID: firstString(payload, "appointmentId", "appointment_id", "id"),
		StartTime:     orDefault(firstString(payload, "startTime", "start_time", "startTimeISO8601"), req.StartTime),
		ServiceName:   orDefault(firstString(payload, "serviceName", "service_name", "service"), req.ServiceName),
		CustomerName:  orDefault(firstString(payload, "customerName", "customer_name"), req.CustomerName),
		Raw:           payload,
	}
}

func firstString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = fmt.Sprintf("%.0f", t)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
