package sentinel

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/metrics"
)

// Default client configuration constants.
const defaultRequestTimeout = 5 * time.Second

// ReportClient is the thin HTTP client the endpoint runtime uses to talk
// to the supervising server.
type ReportClient struct {
	baseURL string
	http    *http.Client
}

// ClientOption applies a configuration option to the ReportClient.
type ClientOption func(*ReportClient)

// WithRequestTimeout bounds each request round trip.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *ReportClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, for tests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *ReportClient) {
		if h != nil {
			c.http = h
		}
	}
}

// NewReportClient creates a client against the given server base URL.
func NewReportClient(baseURL string, opts ...ClientOption) *ReportClient {
	c := &ReportClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession registers a session for the candidate and returns the
// credential pair.
func (c *ReportClient) CreateSession(ctx context.Context, candidateName string) (string, string, error) {
	body := map[string]string{"candidate_name": candidateName}
	var out struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}
	if err := c.post(ctx, "/api/create-session", body, &out); err != nil {
		return "", "", err
	}
	return out.SessionID, out.Token, nil
}

// Send transmits one detection report. Transient failures surface as
// errors and are absorbed by the caller; the next cycle retries naturally.
func (c *ReportClient) Send(ctx context.Context, report model.DetectionReport) error {
	start := time.Now()
	err := c.post(ctx, "/api/report", report, nil)
	if err != nil {
		metrics.RecordReportSendFailure()
		return err
	}
	metrics.RecordReportSendLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// EndSession tells the server the session is over.
func (c *ReportClient) EndSession(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/api/end-session/"+sessionID, nil, nil)
}

func (c *ReportClient) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send %s request: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", path, ErrSessionEnded)
	default:
		return fmt.Errorf("%s: %w: status %d", path, ErrServer, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
