package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultCloseGraceDelay = 100 * time.Millisecond

// DefaultBookingService owns the correlation id lifecycle: it submits the job,
// then runs one background task per booking that forwards progress and ends
// with exactly one terminal event and one close.
type DefaultBookingService struct {
	deps     Deps
	settings Settings
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closing bool
	tasks   sync.WaitGroup

	newID func() string
	now   func() time.Time
}

func NewDefaultBookingService(deps Deps, settings Settings) *DefaultBookingService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if settings.CloseGraceDelay <= 0 {
		settings.CloseGraceDelay = DefaultCloseGraceDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DefaultBookingService{
		deps:     deps,
		settings: settings,
		logger:   deps.Logger,
		ctx:      ctx,
		cancel:   cancel,
		newID:    func() string { return "req_" + uuid.NewString() },
		now:      time.Now,
	}
}

// Submit validates the request, creates the upstream job and starts tracking
// it. No correlation id is issued when validation or submission fails.
func (s *DefaultBookingService) Submit(ctx context.Context, req models.BookingRequest) (*SubmitResult, error) {
	if s.isClosing() {
		return nil, ErrShuttingDown
	}

	req = req.Normalize(s.settings.DefaultProvider)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	handle, err := s.deps.Poller.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	logger := s.logger.With(zap.String("correlation_id", id), zap.String("job_id", handle.JobID))

	now := s.now()
	receipt := models.BookingReceipt{
		CorrelationID: id,
		Status:        models.ReceiptPending,
		JobID:         handle.JobID,
		Provider:      req.Provider,
		ServiceName:   req.ServiceName,
		StartTime:     req.StartTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.deps.Receipts.Save(ctx, receipt); err != nil {
		return nil, fmt.Errorf("save booking receipt: %w", err)
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.tasks.Add(1)
	s.mu.Unlock()

	go s.track(id, req, handle, receipt, logger)

	logger.Info("Booking accepted", zap.String("provider", req.Provider), zap.String("service", req.ServiceName))
	return &SubmitResult{CorrelationID: id, Reply: s.deps.Composer.Acknowledge(req)}, nil
}

func (s *DefaultBookingService) Receipt(ctx context.Context, correlationID string) (*models.BookingReceipt, error) {
	return s.deps.Receipts.Get(ctx, correlationID)
}

// Shutdown stops accepting bookings and waits for running tasks. When ctx
// expires first the tasks are cancelled; they still publish their terminal
// event and close before Shutdown returns.
func (s *DefaultBookingService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.logger.Warn("Cancelling in-flight bookings")
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *DefaultBookingService) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}
