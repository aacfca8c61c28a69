package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRequest() models.BookingRequest {
	return models.BookingRequest{
		Provider:      "Carl Morris",
		CustomerName:  "Jane Doe",
		CustomerPhone: "+12065551212",
		ServiceName:   "Haircut",
		StartTime:     "2025-11-15T14:00:00-08:00",
	}
}

func TestSubmitBooking_ReturnsJobID(t *testing.T) {
	var got submitPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/actions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"jobId":"job_1"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL+"/v1/", "secret", time.Second, zap.NewNop())
	jobID, err := client.SubmitBooking(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "job_1", jobID)
	assert.Equal(t, "Jane Doe", got.CustomerName)
	assert.Equal(t, "2025-11-15T14:00:00-08:00", got.StartTime)
}

func TestSubmitBooking_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"non-2xx", http.StatusBadGateway, `upstream down`, "status 502"},
		{"malformed body", http.StatusOK, `{not json`, "decode"},
		{"missing job id", http.StatusOK, `{"jobId":"  "}`, "no jobId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewHTTPClient(srv.URL, "", time.Second, nil)
			_, err := client.SubmitBooking(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJobStatus_DecodesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job_1", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"status": "in_progress",
			"recentEvents": [{"created_at": "2025-11-15T10:00:00Z", "message": "Checking availability"}]
		}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", time.Second, nil)
	status, err := client.JobStatus(context.Background(), "job_1")

	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, status.Status)
	require.Len(t, status.RecentEvents, 1)
	assert.Equal(t, "Checking availability", status.RecentEvents[0].Message)
	assert.Equal(t, time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC), status.RecentEvents[0].CreatedAt.UTC())
}

func TestJobStatus_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewHTTPClient(srv.URL, "", time.Second, nil)
	_, err := client.JobStatus(context.Background(), "job_1")
	assert.Error(t, err)
}

func TestEndpoint_EscapesSegmentsOnce(t *testing.T) {
	tests := []struct {
		base  string
		jobID string
		want  string
	}{
		{base: "http://actions.test", jobID: "job_1", want: "http://actions.test/jobs/job_1"},
		{base: "http://actions.test/v1/", jobID: "a b", want: "http://actions.test/v1/jobs/a%20b"},
		{base: "http://actions.test/v1", jobID: "a/b", want: "http://actions.test/v1/jobs/a%2Fb"},
		{base: "http://actions.test", jobID: "50%", want: "http://actions.test/jobs/50%25"},
	}

	for _, tt := range tests {
		t.Run(tt.jobID, func(t *testing.T) {
			client := NewHTTPClient(tt.base, "", time.Second, nil)
			got, err := client.endpoint("jobs", tt.jobID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobStatus_JobIDReachesServerIntact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/a b", r.URL.Path)
		assert.Equal(t, "/jobs/a%20b", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"status": "queued"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", time.Second, nil)
	status, err := client.JobStatus(context.Background(), "a b")

	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, status.Status)
}
