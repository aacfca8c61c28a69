package models

import "time"

// Upstream job status values. Anything else is treated as still running.
const (
	JobStatusQueued     = "queued"
	JobStatusInProgress = "in_progress"
	JobStatusSuccess    = "success"
	JobStatusError      = "error"
)

// JobHandle identifies one submitted upstream job. It belongs to the poll loop that created it.
type JobHandle struct {
	JobID       string    `json:"jobId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// JobEvent is one entry of the provider's recent-events list.
type JobEvent struct {
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

// JobStatus is a single status read for an upstream job.
type JobStatus struct {
	Status       string         `json:"status"`
	Result       map[string]any `json:"result,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	RecentEvents []JobEvent     `json:"recentEvents,omitempty"`
}

// ProgressEvent is a de-duplicated status line forwarded by the poller.
type ProgressEvent struct {
	Timestamp time.Time
	Message   string
}

// BookingResult is the provider's success payload normalized into a fixed shape.
type BookingResult struct {
	AppointmentID string         `json:"appointmentId"`
	StartTime     string         `json:"startTime"`
	ServiceName   string         `json:"serviceName"`
	CustomerName  string         `json:"customerName"`
	Raw           map[string]any `json:"raw,omitempty"` // Untouched provider payload, for diagnostics
}
