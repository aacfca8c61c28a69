package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() BookingRequest {
	return BookingRequest{
		Provider:      "Carl Morris",
		CustomerName:  "Jane Doe",
		CustomerPhone: "+12065551212",
		ServiceName:   "Haircut",
		StartTime:     "2025-11-15T14:00:00-08:00",
	}
}

func TestNormalize(t *testing.T) {
	req := validRequest()
	req.Provider = "  "
	req.CustomerName = "  Jane Doe\t"

	got := req.Normalize(" Front Desk ")
	assert.Equal(t, "Front Desk", got.Provider)
	assert.Equal(t, "Jane Doe", got.CustomerName)

	// An explicit provider is kept.
	assert.Equal(t, "Carl Morris", validRequest().Normalize("Front Desk").Provider)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*BookingRequest)
		wantField string
	}{
		{"valid", func(*BookingRequest) {}, ""},
		{"missing name", func(r *BookingRequest) { r.CustomerName = "" }, "customerName"},
		{"missing phone", func(r *BookingRequest) { r.CustomerPhone = "" }, "customerPhone"},
		{"missing service", func(r *BookingRequest) { r.ServiceName = "" }, "serviceName"},
		{"missing start", func(r *BookingRequest) { r.StartTime = "" }, "startTimeISO8601"},
		{"missing provider", func(r *BookingRequest) { r.Provider = "" }, "provider"},
		{"no offset", func(r *BookingRequest) { r.StartTime = "2025-11-15T14:00:00" }, "startTimeISO8601"},
		{"not a time", func(r *BookingRequest) { r.StartTime = "Saturday 2pm" }, "startTimeISO8601"},
		{"utc designator", func(r *BookingRequest) { r.StartTime = "2025-11-15T22:00:00Z" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestStartAt(t *testing.T) {
	at, err := validRequest().StartAt()
	require.NoError(t, err)
	assert.True(t, at.Equal(time.Date(2025, 11, 15, 22, 0, 0, 0, time.UTC)))
}
