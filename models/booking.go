package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingRequest is the structured booking produced by the chat assistant's tool call.
// It is treated as immutable once normalized.
type BookingRequest struct {
	Provider      string `json:"provider"`         // Staff member or resource to book with
	CustomerName  string `json:"customerName"`     // Name the appointment is held under
	CustomerPhone string `json:"customerPhone"`    // Contact number, free-form
	ServiceName   string `json:"serviceName"`      // e.g. "Haircut"
	StartTime     string `json:"startTimeISO8601"` // RFC 3339 timestamp with offset
	Note          string `json:"note,omitempty"`   // Optional free-text note for the provider
}

// ValidationError reports a booking field that is missing or malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize trims every field and fills in the provider when the caller left it empty.
func (r BookingRequest) Normalize(defaultProvider string) BookingRequest {
	out := BookingRequest{
		Provider:      strings.TrimSpace(r.Provider),
		CustomerName:  strings.TrimSpace(r.CustomerName),
		CustomerPhone: strings.TrimSpace(r.CustomerPhone),
		ServiceName:   strings.TrimSpace(r.ServiceName),
		StartTime:     strings.TrimSpace(r.StartTime),
		Note:          strings.TrimSpace(r.Note),
	}
	if out.Provider == "" {
		out.Provider = strings.TrimSpace(defaultProvider)
	}
	return out
}

// Validate checks the request after normalization. The first offending field is reported.
func (r BookingRequest) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"customerName", r.CustomerName},
		{"customerPhone", r.CustomerPhone},
		{"serviceName", r.ServiceName},
		{"startTimeISO8601", r.StartTime},
		{"provider", r.Provider},
	}
	for _, f := range required {
		if f.value == "" {
			return &ValidationError{Field: f.field, Message: "is required"}
		}
	}
	if _, err := r.StartAt(); err != nil {
		return &ValidationError{Field: "startTimeISO8601", Message: "must be an ISO 8601 timestamp with offset"}
	}
	return nil
}

// StartAt parses the requested start time. Timestamps without an offset are rejected.
func (r BookingRequest) StartAt() (time.Time, error) {
	return time.Parse(time.RFC3339, r.StartTime)
}
