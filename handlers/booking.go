package handlers

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/block-integration-api/tutorial-webchat/database/repository"
	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/block-integration-api/tutorial-webchat/services/booking"
	"github.com/block-integration-api/tutorial-webchat/services/notifier"
	"github.com/block-integration-api/tutorial-webchat/services/poller"
	"github.com/block-integration-api/tutorial-webchat/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errStreamBufferFull = errors.New("stream buffer full")

// Subscriber is satisfied by *notifier.Registry.
type Subscriber interface {
	Subscribe(id string, sink notifier.Sink) (unsubscribe func())
}

type BookingHandler struct {
	BookingService booking.BookingService
	Notifier       Subscriber
	KeepAlive      time.Duration
	BufferSize     int
}

func NewBookingHandler(svc booking.BookingService, sub Subscriber, keepAlive time.Duration, bufferSize int) *BookingHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &BookingHandler{
		BookingService: svc,
		Notifier:       sub,
		KeepAlive:      keepAlive,
		BufferSize:     bufferSize,
	}
}

// SubmitBookingHandler starts a booking and answers with its correlation id.
// It waits for the provider to accept the job, so a rejected submission never
// gets an id, but it does not wait for the outcome.
func (h *BookingHandler) SubmitBookingHandler(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}

	res, err := h.BookingService.Submit(c.Request.Context(), req)
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "field": verr.Field, "details": verr.Message})
		case errors.Is(err, poller.ErrSubmissionFailed):
			getLogger(c).Warn("Booking submission rejected upstream", zap.Error(err))
			utils.JSONError(c, http.StatusBadGateway, "Booking provider unavailable", "The booking could not be submitted. Please try again.")
		case errors.Is(err, booking.ErrShuttingDown):
			utils.JSONError(c, http.StatusServiceUnavailable, "Service is shutting down", err.Error())
		default:
			getLogger(c).Error("Booking submission failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
		}
		return
	}

	c.JSON(http.StatusAccepted, res)
}

// GetBookingHandler returns the last known state of a booking.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	id := c.Param("correlationID")
	receipt, err := h.BookingService.Receipt(c.Request.Context(), id)
	if errors.Is(err, repository.ErrReceiptNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	if err != nil {
		getLogger(c).Error("Failed to load booking receipt", zap.String("correlation_id", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// StreamEventsHandler relays a booking's events as server-sent events until
// the close sentinel arrives or the client goes away. A finished booking is
// answered from its receipt.
func (h *BookingHandler) StreamEventsHandler(c *gin.Context) {
	id := c.Param("correlationID")
	logger := getLogger(c).With(zap.String("correlation_id", id))

	receipt, err := h.BookingService.Receipt(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		logger.Error("Failed to load booking receipt", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if receipt.Finished() {
		logger.Debug("Replaying finished booking", zap.String("status", receipt.Status))
		replayed := []models.Event{models.Connected(), receipt.ReplayEvent(), models.CloseEvent()}
		c.Stream(func(w io.Writer) bool {
			name, msg := replayed[0].Encode()
			c.SSEvent(name, msg)
			replayed = replayed[1:]
			return len(replayed) > 0
		})
		return
	}

	// The registry delivers synchronously, so the sink only hands off. Once the
	// buffer overflows the registry drops the sink and closes the channel.
	events := make(chan models.Event, h.BufferSize)
	gone := make(chan struct{})
	var dropped sync.Once
	sink := notifier.SinkFunc(func(ev models.Event) error {
		select {
		case events <- ev:
			return nil
		default:
			dropped.Do(func() { close(gone) })
			return errStreamBufferFull
		}
	})

	unsubscribe := h.Notifier.Subscribe(id, sink)
	defer unsubscribe()

	keepAlive := time.NewTicker(h.KeepAlive)
	defer keepAlive.Stop()

	logger.Debug("Stream opened")
	opened := false
	c.Stream(func(w io.Writer) bool {
		if !opened {
			opened = true
			name, msg := models.Connected().Encode()
			c.SSEvent(name, msg)
			return true
		}
		select {
		case <-c.Request.Context().Done():
			logger.Debug("Stream client disconnected")
			return false
		case ev := <-events:
			name, msg := ev.Encode()
			c.SSEvent(name, msg)
			return !ev.IsTerminal()
		case <-gone:
			logger.Warn("Stream buffer overflowed, ending stream")
			for {
				select {
				case ev := <-events:
					name, msg := ev.Encode()
					c.SSEvent(name, msg)
				default:
					name, msg := models.CloseEvent().Encode()
					c.SSEvent(name, msg)
					return false
				}
			}
		case <-keepAlive.C:
			_, err := io.WriteString(w, ": keepalive\n\n")
			return err == nil
		}
	})
}
