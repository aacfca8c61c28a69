package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/block-integration-api/tutorial-webchat/database/repository"
	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/block-integration-api/tutorial-webchat/services/intelligence"
	"github.com/block-integration-api/tutorial-webchat/services/notifier"
	"github.com/block-integration-api/tutorial-webchat/services/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPoller struct {
	mock.Mock
}

func (m *mockPoller) Submit(ctx context.Context, req models.BookingRequest) (*models.JobHandle, error) {
	args := m.Called(ctx, req)
	handle, _ := args.Get(0).(*models.JobHandle)
	return handle, args.Error(1)
}

func (m *mockPoller) Await(ctx context.Context, req models.BookingRequest, handle *models.JobHandle, onProgress poller.ProgressFunc) (models.TerminalOutcome, error) {
	args := m.Called(ctx, req, handle, onProgress)
	return args.Get(0).(models.TerminalOutcome), args.Error(1)
}

type mockReminders struct {
	mock.Mock
}

func (m *mockReminders) ScheduleAppointmentReminder(ctx context.Context, correlationID string, req models.BookingRequest, result models.BookingResult) error {
	return m.Called(ctx, correlationID, req, result).Error(0)
}

// streamSink records what a live subscriber sees, rendered in wire form.
type streamSink struct {
	mu     sync.Mutex
	lines  []string
	closed chan struct{}
}

func newStreamSink() *streamSink {
	return &streamSink{closed: make(chan struct{})}
}

func (s *streamSink) Deliver(ev models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, msg := ev.Encode()
	if name == models.SSEEventDone {
		s.lines = append(s.lines, "done")
		close(s.closed)
		return nil
	}
	s.lines = append(s.lines, msg.Message)
	return nil
}

func (s *streamSink) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-s.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("stream never closed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func janeDoe() models.BookingRequest {
	return models.BookingRequest{
		CustomerName:  " Jane Doe ",
		CustomerPhone: "+12065551212",
		ServiceName:   "Haircut",
		StartTime:     "2025-11-15T14:00:00-08:00",
	}
}

type fixture struct {
	svc       *DefaultBookingService
	poller    *mockPoller
	registry  *notifier.Registry
	receipts  repository.ReceiptRepository
	reminders *mockReminders
}

func newFixture() *fixture {
	f := &fixture{
		poller:    new(mockPoller),
		registry:  notifier.NewRegistry(),
		receipts:  repository.NewMemoryReceiptRepo(time.Hour),
		reminders: new(mockReminders),
	}
	f.svc = NewDefaultBookingService(Deps{
		Poller:    f.poller,
		Notifier:  f.registry,
		Composer:  intelligence.TemplateComposer{},
		Receipts:  f.receipts,
		Reminders: f.reminders,
	}, Settings{DefaultProvider: "Carl Morris", CloseGraceDelay: time.Millisecond})
	return f
}

func (f *fixture) expectSubmit() {
	f.poller.On("Submit", mock.Anything, mock.Anything).Return(&models.JobHandle{JobID: "job_1", SubmittedAt: time.Now()}, nil)
}

func TestSubmit_SuccessStreamsProgressFinalAndDone(t *testing.T) {
	f := newFixture()
	f.expectSubmit()
	f.poller.On("Await", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			onProgress := args.Get(3).(poller.ProgressFunc)
			onProgress(models.ProgressEvent{Timestamp: time.Now(), Message: "Checking availability"})
		}).
		Return(models.Succeeded(models.BookingResult{AppointmentID: "appt_1"}), nil)
	f.reminders.On("ScheduleAppointmentReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Submit(context.Background(), janeDoe())
	require.NoError(t, err)
	assert.Regexp(t, `^req_[0-9a-f-]{36}$`, res.CorrelationID)
	assert.Contains(t, res.Reply, "Carl Morris")

	sink := newStreamSink()
	f.registry.Subscribe(res.CorrelationID, sink)
	lines := sink.wait(t)

	require.Len(t, lines, 3)
	assert.Equal(t, "Checking availability", lines[0])
	assert.Regexp(t, `^final:You're all set, Jane Doe!.*appt_1`, lines[1])
	assert.Equal(t, "done", lines[2])

	require.NoError(t, f.svc.Shutdown(context.Background()))

	receipt, err := f.svc.Receipt(context.Background(), res.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptSucceeded, receipt.Status)
	assert.Equal(t, "appt_1", receipt.AppointmentID)
	assert.Equal(t, "job_1", receipt.JobID)

	f.reminders.AssertCalled(t, "ScheduleAppointmentReminder", mock.Anything, res.CorrelationID, mock.Anything, mock.Anything)
	f.poller.AssertCalled(t, "Submit", mock.Anything, mock.MatchedBy(func(req models.BookingRequest) bool {
		return req.Provider == "Carl Morris" && req.CustomerName == "Jane Doe"
	}))
}

func TestSubmit_TerminalFailures(t *testing.T) {
	tests := []struct {
		name       string
		outcome    models.TerminalOutcome
		err        error
		wantLine   string
		wantStatus string
	}{
		{
			name:       "provider error",
			outcome:    models.Failed("Slot no longer available"),
			wantLine:   "Error: Slot no longer available",
			wantStatus: models.ReceiptFailed,
		},
		{
			name:       "timeout",
			outcome:    models.TimedOut(120 * time.Second),
			wantLine:   "Error: The booking provider did not confirm within 120 seconds. Please check back later or try again.",
			wantStatus: models.ReceiptTimedOut,
		},
		{
			name:       "poll transport error",
			err:        poller.ErrPollTransport,
			wantLine:   "Error: " + MsgPollLost,
			wantStatus: models.ReceiptFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.expectSubmit()
			f.poller.On("Await", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.outcome, tt.err)

			res, err := f.svc.Submit(context.Background(), janeDoe())
			require.NoError(t, err)
			require.NoError(t, f.svc.Shutdown(context.Background()))

			// The subscriber arrives late and still sees exactly one terminal line and one close.
			sink := newStreamSink()
			f.registry.Subscribe(res.CorrelationID, sink)
			assert.Equal(t, []string{tt.wantLine, "done"}, sink.wait(t))

			// Stray late events never reach anyone.
			f.registry.Publish(res.CorrelationID, models.Progress("late"))
			assert.Equal(t, 0, f.registry.Stats().Channels)

			receipt, err := f.svc.Receipt(context.Background(), res.CorrelationID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, receipt.Status)
			f.reminders.AssertNotCalled(t, "ScheduleAppointmentReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_PanicInPollStillClosesStream(t *testing.T) {
	f := newFixture()
	f.expectSubmit()
	f.poller.On("Await", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("boom") }).
		Return(models.TerminalOutcome{}, nil)

	res, err := f.svc.Submit(context.Background(), janeDoe())
	require.NoError(t, err)

	sink := newStreamSink()
	f.registry.Subscribe(res.CorrelationID, sink)
	assert.Equal(t, []string{"Error: " + MsgInternal, "done"}, sink.wait(t))
}

func TestSubmit_ValidationErrorIssuesNoID(t *testing.T) {
	f := newFixture()
	req := janeDoe()
	req.CustomerPhone = "  "

	res, err := f.svc.Submit(context.Background(), req)

	assert.Nil(t, res)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "customerPhone", verr.Field)
	f.poller.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSubmit_SubmissionFailedOpensNoChannel(t *testing.T) {
	f := newFixture()
	f.poller.On("Submit", mock.Anything, mock.Anything).Return(nil, poller.ErrSubmissionFailed)

	res, err := f.svc.Submit(context.Background(), janeDoe())

	assert.Nil(t, res)
	assert.ErrorIs(t, err, poller.ErrSubmissionFailed)
	assert.Equal(t, notifier.Stats{}, f.registry.Stats())
	f.poller.AssertNotCalled(t, "Await", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestShutdown_CancelsInFlightBookings(t *testing.T) {
	f := newFixture()
	f.expectSubmit()
	f.poller.On("Await", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(models.TerminalOutcome{}, context.Canceled)

	res, err := f.svc.Submit(context.Background(), janeDoe())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = f.svc.Shutdown(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	sink := newStreamSink()
	f.registry.Subscribe(res.CorrelationID, sink)
	assert.Equal(t, []string{"Error: " + MsgInterrupted, "done"}, sink.wait(t))

	_, err = f.svc.Submit(context.Background(), janeDoe())
	assert.ErrorIs(t, err, ErrShuttingDown)
}
