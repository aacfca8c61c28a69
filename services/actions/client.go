package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"go.uber.org/zap"
)

// Client talks to the upstream actions API that runs bookings as async jobs.
type Client interface {
	SubmitBooking(ctx context.Context, req models.BookingRequest) (string, error)
	JobStatus(ctx context.Context, jobID string) (*models.JobStatus, error)
}

// submitPayload is the body of POST /actions.
type submitPayload struct {
	Provider      string `json:"provider"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	ServiceName   string `json:"serviceName"`
	StartTime     string `json:"startTime"`
	Note          string `json:"note,omitempty"`
}

type submitResponse struct {
	JobID string `json:"jobId"`
}

// HTTPClient is the net/http implementation of Client.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a client. A zero timeout falls back to 10s.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// endpoint joins the base URL with the given path segments.
func (c *HTTPClient) endpoint(segments ...string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid actions base url %q: %w", c.baseURL, err)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	// JoinPath takes escaped elements.
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return u.JoinPath(escaped...).String(), nil
}

// SubmitBooking posts the booking and returns the upstream job id.
func (c *HTTPClient) SubmitBooking(ctx context.Context, req models.BookingRequest) (string, error) {
	payload, err := json.Marshal(submitPayload{
		Provider:      req.Provider,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		ServiceName:   req.ServiceName,
		StartTime:     req.StartTime,
		Note:          req.Note,
	})
	if err != nil {
		return "", fmt.Errorf("marshal booking: %w", err)
	}

	endpoint, err := c.endpoint("actions")
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out submitResponse
	if err := c.do(httpReq, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.JobID) == "" {
		return "", fmt.Errorf("actions api returned no jobId")
	}

	c.logger.Debug("Booking submitted", zap.String("job_id", out.JobID), zap.String("provider", req.Provider))
	return out.JobID, nil
}

// JobStatus reads the current status of a job.
func (c *HTTPClient) JobStatus(ctx context.Context, jobID string) (*models.JobStatus, error) {
	endpoint, err := c.endpoint("jobs", jobID)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	var status models.JobStatus
	if err := c.do(httpReq, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("Actions API returned non-OK status",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
