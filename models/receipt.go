package models

import "time"

// Receipt statuses.
const (
	ReceiptPending   = "pending"
	ReceiptSucceeded = "succeeded"
	ReceiptFailed    = "failed"
	ReceiptTimedOut  = "timed_out"
)

// BookingReceipt is the last known state of a booking attempt, kept after its stream closes.
type BookingReceipt struct {
	CorrelationID string    `json:"correlationId"`
	Status        string    `json:"status"`
	JobID         string    `json:"jobId"`
	Provider      string    `json:"provider"`
	ServiceName   string    `json:"serviceName"`
	StartTime     string    `json:"startTime"`
	AppointmentID string    `json:"appointmentId,omitempty"`
	Message       string    `json:"message,omitempty"` // Final confirmation or failure text
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ApplyOutcome records a terminal outcome and the text the subscriber was sent.
func (r *BookingReceipt) ApplyOutcome(outcome TerminalOutcome, message string) {
	switch outcome.Kind {
	case OutcomeSuccess:
		r.Status = ReceiptSucceeded
		if outcome.Result != nil {
			r.AppointmentID = outcome.Result.AppointmentID
		}
	case OutcomeTimeout:
		r.Status = ReceiptTimedOut
	default:
		r.Status = ReceiptFailed
	}
	r.Message = message
	r.UpdatedAt = time.Now()
}

// Finished reports whether the booking reached a terminal status.
func (r BookingReceipt) Finished() bool {
	switch r.Status {
	case ReceiptSucceeded, ReceiptFailed, ReceiptTimedOut:
		return true
	}
	return false
}

// ReplayEvent rebuilds the terminal event the subscriber was sent.
func (r BookingReceipt) ReplayEvent() Event {
	if r.Status == ReceiptSucceeded {
		return Final(r.Message)
	}
	return Failure(r.Message)
}
